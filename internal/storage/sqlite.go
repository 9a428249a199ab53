package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coex-control/coexd/internal/coex"
)

// SqliteStore implements Store on top of a single SQLite database file.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store for the given database path. Connections are
// opened lazily; the schema is initialized on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		// The write connection must exist first so the schema is in place.
		if _, err := s.getWriteDB(); err != nil {
			s.readDBErr = err
			return
		}

		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, samplerType string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	switch v := config.(type) {
	case nil:
	case string:
		configData.Valid = true
		configData.String = v

	case []byte:
		configData.Valid = true
		configData.String = string(v)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			return 0, fmt.Errorf("marshaling config: %w", err)
		}
		configData.Valid = true
		configData.String = string(p)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, samplerType, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	if sessionID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting session id: %w", err)
	}
	return sessionID, nil
}

func (s *SqliteStore) StoreCycle(ctx context.Context, sessionID int64, result *coex.CycleResult) (cycleID int64, err error) {
	if result == nil {
		return 0, errors.New("cannot store nil cycle result")
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, insertCycleSQL,
		sessionID,
		result.Timestamp.UTC(),
		result.Empty,
		result.WorstChannel,
		result.MaxInterference,
		result.Mitigated,
		result.PowerReduction,
		result.ChannelSwitched,
		result.NewChannel,
		result.State.WiFiChannel,
		result.State.BLEChannel,
		result.State.WiFiPower,
		result.State.BLEPower,
		result.State.InterferenceLevel,
		result.State.ThroughputImprovementPct,
		result.State.ChannelSwitches,
	)
	if err != nil {
		rollbackWithError(tx, &err)
		return 0, fmt.Errorf("inserting cycle: %w", err)
	}

	if cycleID, err = res.LastInsertId(); err != nil {
		rollbackWithError(tx, &err)
		return 0, fmt.Errorf("getting cycle id: %w", err)
	}

	if len(result.Samples) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
		if err != nil {
			rollbackWithError(tx, &err)
			return 0, fmt.Errorf("preparing sample statement: %w", err)
		}

		for _, sample := range result.Samples {
			if _, err = stmt.ExecContext(ctx, cycleID, sample.Channel, sample.RSSI, sample.Interference, sample.Technology.String()); err != nil {
				_ = stmt.Close()
				rollbackWithError(tx, &err)
				return 0, fmt.Errorf("inserting sample: %w", err)
			}
		}
		if err = stmt.Close(); err != nil {
			rollbackWithError(tx, &err)
			return 0, fmt.Errorf("closing sample statement: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cycle: %w", err)
	}
	return cycleID, nil
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	var row sessionRow
	err = db.QueryRowContext(ctx, selectSessionSQL, id).Scan(&row.ID, &row.StartTime, &row.SamplerType, &row.Config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting session: %w", err)
	}

	return row.model(), nil
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("selecting sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row sessionRow
		if err = rows.Scan(&row.ID, &row.StartTime, &row.SamplerType, &row.Config); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, row.model())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

func (s *SqliteStore) Cycles(ctx context.Context, sessionID int64) (cycles []*CycleRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectCyclesSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("selecting cycles: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var c CycleRecord
		if err = rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.Timestamp,
			&c.Empty,
			&c.WorstChannel,
			&c.MaxInterference,
			&c.Mitigated,
			&c.PowerReduction,
			&c.ChannelSwitched,
			&c.NewChannel,
			&c.WiFiChannel,
			&c.BLEChannel,
			&c.WiFiPower,
			&c.BLEPower,
			&c.InterferenceLevel,
			&c.ThroughputImprovementPct,
			&c.ChannelSwitches,
		); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		cycles = append(cycles, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	return cycles, nil
}

func (s *SqliteStore) Samples(ctx context.Context, sessionID int64) (samples []SampleRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectSamplesSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("selecting samples: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var r SampleRecord
		var tech string
		if err = rows.Scan(&r.CycleID, &r.Timestamp, &r.Channel, &r.RSSI, &r.Interference, &tech); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		r.Technology = coex.Technology(tech)
		samples = append(samples, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return samples, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && *err == nil {
		*err = rErr
	}
}

package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sampler_type TEXT NOT NULL,
    config       TEXT
);

CREATE TABLE IF NOT EXISTS cycles (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id             INTEGER NOT NULL REFERENCES sessions (id),
    timestamp              DATETIME NOT NULL,
    empty                  INTEGER NOT NULL DEFAULT 0,
    worst_channel          INTEGER NOT NULL DEFAULT 0,
    max_interference       INTEGER NOT NULL DEFAULT 0,
    mitigated              INTEGER NOT NULL DEFAULT 0,
    power_reduction        INTEGER NOT NULL DEFAULT 0,
    channel_switched       INTEGER NOT NULL DEFAULT 0,
    new_channel            INTEGER NOT NULL DEFAULT 0,
    wifi_channel           INTEGER NOT NULL,
    ble_channel            INTEGER NOT NULL,
    wifi_power             INTEGER NOT NULL,
    ble_power              INTEGER NOT NULL,
    interference_level     INTEGER NOT NULL,
    throughput_improvement INTEGER NOT NULL,
    channel_switches       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_session_time ON cycles (session_id, timestamp);

CREATE TABLE IF NOT EXISTS samples (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id     INTEGER NOT NULL REFERENCES cycles (id),
    channel      INTEGER NOT NULL,
    rssi         INTEGER NOT NULL,
    interference INTEGER NOT NULL,
    technology   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_cycle ON samples (cycle_id);
`

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      sampler_type,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       sampler_type,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       sampler_type,
       config
FROM sessions
ORDER BY start_time`

	insertCycleSQL = `
INSERT INTO cycles (session_id,
                    timestamp,
                    empty,
                    worst_channel,
                    max_interference,
                    mitigated,
                    power_reduction,
                    channel_switched,
                    new_channel,
                    wifi_channel,
                    ble_channel,
                    wifi_power,
                    ble_power,
                    interference_level,
                    throughput_improvement,
                    channel_switches)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertSampleSQL = `
INSERT INTO samples (cycle_id,
                     channel,
                     rssi,
                     interference,
                     technology)
VALUES (?, ?, ?, ?, ?)`

	selectCyclesSQL = `
SELECT id,
       session_id,
       timestamp,
       empty,
       worst_channel,
       max_interference,
       mitigated,
       power_reduction,
       channel_switched,
       new_channel,
       wifi_channel,
       ble_channel,
       wifi_power,
       ble_power,
       interference_level,
       throughput_improvement,
       channel_switches
FROM cycles
WHERE session_id = ?
ORDER BY timestamp, id`

	selectSamplesSQL = `
SELECT s.cycle_id,
       c.timestamp,
       s.channel,
       s.rssi,
       s.interference,
       s.technology
FROM samples s
         JOIN cycles c ON c.id = s.cycle_id
WHERE c.session_id = ?
ORDER BY c.timestamp, c.id, s.channel`
)

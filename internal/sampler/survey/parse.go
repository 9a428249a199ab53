package survey

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/coex-control/coexd/internal/coex"
)

// surveyBlock accumulates one per-frequency block of survey output.
type surveyBlock struct {
	freqMHz  int
	noiseDBM int
	hasNoise bool
	activeMs int64
	busyMs   int64
}

// parseSurvey reads "survey dump" style output and builds per-channel
// samples. Blocks start at a "frequency:" line; noise and channel time
// accumulators follow. Frequencies outside the 2.4GHz band are ignored.
// Malformed blocks are skipped until the threshold is exceeded.
func parseSurvey(r io.Reader, threshold uint8, now time.Time) (map[int]coex.ChannelSample, error) {
	byChannel := make(map[int]coex.ChannelSample)

	var block *surveyBlock
	var parseErrors uint8

	flush := func() {
		if block == nil {
			return
		}
		if sample, ok := block.sample(now); ok {
			// First block for a channel wins; the kernel reports one block
			// per frequency so duplicates indicate stale interface data.
			if _, exists := byChannel[sample.Channel]; !exists {
				byChannel[sample.Channel] = sample
			}
		}
		block = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "frequency":
			flush()
			block = &surveyBlock{}
			block.freqMHz, err = parseLeadingInt(value)

		case "noise":
			if block != nil {
				block.noiseDBM, err = parseLeadingInt(value)
				block.hasNoise = err == nil
			}

		case "channel active time":
			if block != nil {
				var v int
				v, err = parseLeadingInt(value)
				block.activeMs = int64(v)
			}

		case "channel busy time":
			if block != nil {
				var v int
				v, err = parseLeadingInt(value)
				block.busyMs = int64(v)
			}
		}

		if err != nil {
			parseErrors++
			if parseErrors >= threshold {
				return nil, fmt.Errorf("%w: %d", ErrTooManyParseErrors, parseErrors)
			}
			block = nil // drop the rest of the malformed block
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading survey output: %w", err)
	}
	flush()

	return byChannel, nil
}

// sample converts a completed block into a channel measurement. Blocks
// without airtime accounting or outside the 2.4GHz band produce nothing.
func (b *surveyBlock) sample(now time.Time) (coex.ChannelSample, bool) {
	channel, ok := channelForFrequency(b.freqMHz)
	if !ok || b.activeMs <= 0 {
		return coex.ChannelSample{}, false
	}

	interference := int(b.busyMs * 100 / b.activeMs)
	interference = max(0, min(interference, 100))

	rssi := -90
	if b.hasNoise {
		rssi = b.noiseDBM
	}

	return coex.ChannelSample{
		Channel:      channel,
		RSSI:         rssi,
		Interference: interference,
		Technology:   coex.TechnologyWiFi,
		Timestamp:    now,
	}, true
}

// parseLeadingInt extracts the integer from values like "2412 MHz [in use]"
// or "-95 dBm".
func parseLeadingInt(value string) (int, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(fields[0])
}

// channelForFrequency maps a 2.4GHz center frequency in MHz onto the channel
// index 1..14. Channel 14 sits apart at 2484 MHz; 1..13 step by 5 MHz from
// 2412.
func channelForFrequency(mhz int) (int, bool) {
	if mhz == 2484 {
		return 14, true
	}
	if mhz < 2412 || mhz > 2472 || (mhz-2412)%5 != 0 {
		return 0, false
	}
	return (mhz-2412)/5 + 1, true
}

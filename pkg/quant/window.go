package quant

import "time"

// WindowID identifies a resolution window by its start time in Unix seconds.
// Two cycles targeting the same market share a WindowID iff they target the
// same window.
type WindowID int64

// WindowStart returns the start of the window containing t.
// Windows are aligned to the epoch, so with windowSecs=300 boundaries fall on
// :00/:05/:10 of every hour.
func WindowStart(t time.Time, windowSecs int64) time.Time {
	sec := t.Unix()
	start := sec - (sec % windowSecs)
	return time.Unix(start, 0).UTC()
}

// WindowEnd returns the exclusive end of the window containing t.
func WindowEnd(t time.Time, windowSecs int64) time.Time {
	return WindowStart(t, windowSecs).Add(time.Duration(windowSecs) * time.Second)
}

// NextBoundary returns the first window boundary strictly after t.
func NextBoundary(t time.Time, windowSecs int64) time.Time {
	return WindowEnd(t, windowSecs)
}

// WindowIDFor returns the WindowID for the window containing t.
func WindowIDFor(t time.Time, windowSecs int64) WindowID {
	return WindowID(WindowStart(t, windowSecs).Unix())
}

// Start returns the window start as a time.
func (w WindowID) Start() time.Time {
	return time.Unix(int64(w), 0).UTC()
}

// End returns the exclusive window end for the given window length.
func (w WindowID) End(windowSecs int64) time.Time {
	return w.Start().Add(time.Duration(windowSecs) * time.Second)
}

// Micros converts a time to TimeStamp (Unix micros).
func Micros(t time.Time) TimeStamp {
	return TimeStamp(t.UnixMicro())
}

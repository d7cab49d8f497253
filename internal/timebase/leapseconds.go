package timebase

// leapQueryIntervalMillis is the retry cadence for the almanac-validity
// query (spec §4.2, "approximately 43-second intervals").
const leapQueryIntervalMillis = 43_000

// leapQueryMaxAttempts is when the query gives up (spec §4.2, "up to ~13
// minutes"): 13 min / 43 s ≈ 18 attempts.
const leapQueryMaxAttempts = 18

// LeapSecondsState tracks the reconciliation between the configured
// leap-seconds value and what the GNSS almanac reports, per spec §4.2:
// while the almanac is "not yet valid", a correction is applied; once it
// reports valid, the configured value is updated and the correction drops
// to zero.
type LeapSecondsState struct {
	configured int
	correction int64

	attempts       int
	lastAttemptMs  int64
	attemptsActive bool
	settled        bool
}

// NewLeapSecondsState starts reconciliation with the persisted configured
// value (e.g. from settings.Record.LeapSeconds). The configured value
// itself is the firmware's notion of the current leap-second count (it can
// be well outside [-3, +3], e.g. 18); it is the resulting *correction* -
// configured minus reported - that spec §3 bounds to [-3, +3].
func NewLeapSecondsState(configuredLeapSeconds int) *LeapSecondsState {
	return &LeapSecondsState{configured: configuredLeapSeconds, attemptsActive: true}
}

// Correction returns the current leap-seconds correction to subtract from
// utc_second (spec §4.2: "utc -= correction"); 0 once settled.
func (l *LeapSecondsState) Correction() int64 {
	return l.correction
}

// Settled reports whether the almanac has reported valid (or the retry
// budget has been exhausted) and no further queries will be attempted.
func (l *LeapSecondsState) Settled() bool {
	return l.settled
}

// OnAlmanacInvalid is called on each query tick while the chip reports its
// almanac not yet valid.  reportedLeapSeconds is the chip's current
// reported value, defaulting to 15 when the chip hasn't reported one yet.
// It enforces the 43 s / 18-attempt retry budget; after the budget is
// exhausted the default is accepted and no further queries are issued.
func (l *LeapSecondsState) OnAlmanacInvalid(nowMillis int64, reportedLeapSeconds int) {
	if l.settled {
		return
	}
	if l.attempts > 0 && nowMillis-l.lastAttemptMs < leapQueryIntervalMillis {
		return
	}
	l.attempts++
	l.lastAttemptMs = nowMillis

	reported := reportedLeapSeconds
	if reported == 0 {
		reported = 15
	}
	l.correction = int64(l.configured - reported)

	if l.attempts >= leapQueryMaxAttempts {
		l.settled = true
		l.attemptsActive = false
	}
}

// OnAlmanacValid is called once the chip reports a valid almanac.  The
// configured value is updated to match and the correction drops to zero
// (spec §4.2).  persist is invoked with the new value so the caller can
// write it back to the settings record.
func (l *LeapSecondsState) OnAlmanacValid(reportedLeapSeconds int, persist func(int)) {
	l.configured = reportedLeapSeconds
	l.correction = 0
	l.settled = true
	l.attemptsActive = false
	if persist != nil {
		persist(l.configured)
	}
}

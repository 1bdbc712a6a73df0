package insight

// Default values for engine options. These can be overridden per invocation
// via Options; the budget policy targets are fixed constants, not options.
const (
	// DefaultWindowDays is the rolling comparison window size in days.
	DefaultWindowDays = 30

	// DefaultRecurringLimit caps the recurring-cost ranking.
	DefaultRecurringLimit = 15

	// DefaultMaxActions caps the action plan.
	DefaultMaxActions = 8
)

// Budget discipline policy targets, expressed as percentages of income.
// These follow the common 50/30/20 rule and are deliberately not
// user-editable at runtime.
const (
	TargetEssentialsPct    = 50.0
	TargetDiscretionaryPct = 30.0
	TargetSavingsPct       = 20.0
)

// recurringNoiseFloorEUR is the minimum average monthly spend for a merchant
// to qualify as a recurring cost.
const recurringNoiseFloorEUR = 7.5

// Options tune the engine per invocation. The zero value selects defaults.
type Options struct {
	WindowDays     int `yaml:"window_days"`
	RecurringLimit int `yaml:"recurring_limit"`
	MaxActions     int `yaml:"max_actions"`
}

func (o Options) withDefaults() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.RecurringLimit <= 0 {
		o.RecurringLimit = DefaultRecurringLimit
	}
	if o.MaxActions <= 0 {
		o.MaxActions = DefaultMaxActions
	}
	return o
}

package ranking

// Default tuning constants. The dampening factor keeps a single extreme
// preference from dominating the base score; the threshold decides which
// matched features are shown to the user as reasons.
const (
	DefaultDampening        = 0.3
	DefaultReasonThreshold  = 0.5
	DefaultMaxReasons       = 2
	DefaultBaseScore        = 50.0
	DefaultMinScore         = 0.0
	DefaultMaxScore         = 100.0
	DefaultLearningStepSize = 0.25
)

// Params defines all configurable parameters for preference scoring
type Params struct {
	// Dampening scales the summed matched weights into a score delta.
	Dampening float64

	// ReasonThreshold is the minimum absolute weight for a matched feature
	// to be listed in reasons.
	ReasonThreshold float64

	// MaxReasons caps the reasons list.
	MaxReasons int

	// DefaultBaseScore is used when an item carries no impact score.
	DefaultBaseScore float64

	// MinScore and MaxScore bound the adjusted score.
	MinScore float64
	MaxScore float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Dampening       float64
	ReasonThreshold float64
	MaxReasons      int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Dampening:        DefaultDampening,
		ReasonThreshold:  DefaultReasonThreshold,
		MaxReasons:       DefaultMaxReasons,
		DefaultBaseScore: DefaultBaseScore,
		MinScore:         DefaultMinScore,
		MaxScore:         DefaultMaxScore,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.Dampening > 0 {
		params.Dampening = config.Dampening
	}
	if config.ReasonThreshold > 0 {
		params.ReasonThreshold = config.ReasonThreshold
	}
	if config.MaxReasons > 0 {
		params.MaxReasons = config.MaxReasons
	}

	return params
}

package tourplanning

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/ptsp/motionplan"
)

// default values for tour planning options.
const (
	// Search nodes the tour solver may visit per ordering.
	defaultNodeLimit = 100000

	// Number of independent tour planning workers.
	defaultNumWorkers = 1

	// Time recorded between two waypoints when no leg between them could be planned.
	defaultFailurePenalty = 10000.
)

// NewBasicPlannerOptions specifies a set of basic options for tour planning.
func NewBasicPlannerOptions() *PlannerOptions {
	opt := &PlannerOptions{}
	opt.NodeLimit = defaultNodeLimit
	opt.NumWorkers = defaultNumWorkers
	opt.FailurePenalty = defaultFailurePenalty
	opt.Leg = motionplan.NewBasicPlannerOptions()
	return opt
}

// PlannerOptions configure a tour planning run.
type PlannerOptions struct {
	// Number of waypoint orderings to try. 0 means one more than the number of tour nodes.
	Orderings int `json:"orderings"`

	// Search nodes the tour solver may visit per ordering. 0 or less is unlimited.
	NodeLimit int `json:"node_limit"`

	// Number of independent workers, each with its own cache and random stream.
	NumWorkers int `json:"num_workers"`

	// Time recorded in the time matrix for a leg that could not be planned.
	FailurePenalty float64 `json:"failure_penalty"`

	// Number of seconds before terminating tour planning with the best tour so far. 0 disables.
	Timeout float64 `json:"timeout"`

	// Options of every DIRT run. The goal check is set per leg.
	Leg *motionplan.PlannerOptions `json:"leg"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra. Leg options are read from the nested "leg" object.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opt,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "invalid tour planner options")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem with the options combined into one error.
func (p *PlannerOptions) Validate() error {
	var err error
	if p.Orderings < 0 {
		err = multierr.Append(err, errors.Errorf("orderings can't be negative, got %d", p.Orderings))
	}
	if p.NumWorkers <= 0 {
		err = multierr.Append(err, errors.Errorf("num_workers must be positive, got %d", p.NumWorkers))
	}
	if p.FailurePenalty <= 0 {
		err = multierr.Append(err, errors.New("failure_penalty must be positive"))
	}
	if p.Timeout < 0 {
		err = multierr.Append(err, errors.New("timeout can't be negative"))
	}
	if p.Leg == nil {
		err = multierr.Append(err, errors.New("leg options are required"))
	} else if legErr := p.Leg.Validate(); legErr != nil {
		err = multierr.Append(err, errors.Wrap(legErr, "leg"))
	}
	return err
}

// orderings returns how many orderings to try for a tour of n nodes.
func (p *PlannerOptions) orderings(n int) int {
	if p.Orderings > 0 {
		return p.Orderings
	}
	return n + 1
}

func (p *PlannerOptions) timeoutDuration() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

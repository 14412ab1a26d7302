package motionplan

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// default values for planning options.
const (
	// Number of planner iterations before giving up.
	defaultPlanIter = 100000

	// Number of random controls generated the first time a state is expanded.
	defaultEdgesPerIteration = 7

	// random seed.
	defaultRandomSeed = 0

	// Number of iterations between debug progress logs.
	defaultLoggingInterval = 10000
)

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	opt := &PlannerOptions{}
	opt.PlanIter = defaultPlanIter
	opt.EdgesPerIteration = defaultEdgesPerIteration
	opt.GoalCheck = FullGoalCheck
	opt.RandomSeed = defaultRandomSeed
	opt.LoggingInterval = defaultLoggingInterval
	return opt
}

// PlannerOptions are a set of options to be passed to a DIRT planner.
type PlannerOptions struct {
	// Number of planner iterations before giving up.
	PlanIter int `json:"plan_iter"`

	// Number of random controls generated the first time a state is expanded.
	EdgesPerIteration int `json:"edges_per_iteration"`

	// Whether heading and velocity must match the goal as well as position.
	GoalCheck GoalCheckType `json:"goal_check"`

	// The random seed used by the planner. This parameter guarantees deterministic
	// outputs for a given set of identical inputs.
	RandomSeed int `json:"rseed"`

	// Return as soon as the first solution is found instead of improving it.
	StopAtFirstSolution bool `json:"stop_at_first_solution"`

	// Number of seconds before terminating the planner with the best solution so far. 0 disables.
	Timeout float64 `json:"timeout"`

	// Number of iterations between debug progress logs. 0 disables.
	LoggingInterval int `json:"logging_interval"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra.
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
		return nil, errors.Wrap(err, "invalid planner options")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem with the options combined into one error.
func (p *PlannerOptions) Validate() error {
	var err error
	if p.PlanIter <= 0 {
		err = multierr.Append(err, errors.Errorf("plan_iter must be positive, got %d", p.PlanIter))
	}
	if p.EdgesPerIteration <= 0 {
		err = multierr.Append(err, errors.Errorf("edges_per_iteration must be positive, got %d", p.EdgesPerIteration))
	}
	if p.GoalCheck != FullGoalCheck && p.GoalCheck != PositionOnlyGoalCheck {
		err = multierr.Append(err, errors.Errorf("unknown goal_check %q", p.GoalCheck))
	}
	if p.Timeout < 0 {
		err = multierr.Append(err, errors.New("timeout can't be negative"))
	}
	if p.LoggingInterval < 0 {
		err = multierr.Append(err, errors.New("logging_interval can't be negative"))
	}
	return err
}

// WithGoalCheck returns a copy of the options using the given goal check.
func (p *PlannerOptions) WithGoalCheck(check GoalCheckType) *PlannerOptions {
	c := *p
	c.GoalCheck = check
	return &c
}

func (p *PlannerOptions) timeoutDuration() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

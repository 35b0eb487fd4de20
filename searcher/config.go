package searcher

import "fmt"

// ThreadModel selects how worker goroutines share the search tree.
type ThreadModel string

const (
	// ModelRoot gives every worker a private tree copy, merged at stop.
	ModelRoot ThreadModel = "root"
	// ModelTree shares one tree with atomic statistics.
	ModelTree ThreadModel = "tree"
	// ModelTreeVL is ModelTree plus virtual loss on descent.
	ModelTreeVL ThreadModel = "treevl"
)

// Config is the fully populated configuration record the search core runs
// on. Parsing happens at the engine boundary, never here; DefaultConfig
// supplies the default values.
type Config struct {
	Threads     int         `yaml:"threads"`
	ThreadModel ThreadModel `yaml:"thread_model"`

	MaxTreeSize int64  `yaml:"max_tree_size"` // bytes
	FastAlloc   bool   `yaml:"fast_alloc"`
	ForceSeed   uint64 `yaml:"force_seed"`

	ResignRatio   float64 `yaml:"resign_ratio"`
	LossThreshold float64 `yaml:"loss_threshold"`

	Mercymin       int `yaml:"mercy"`
	Gamelen        int `yaml:"gamelen"`
	ExpandPlayouts int `yaml:"expand_p"`

	FusekiEnd int `yaml:"fuseki_end"` // percent of board filled
	YoseStart int `yaml:"yose_start"`

	Dynkomi     int     `yaml:"dynkomi"` // apply dynamic komi until this move
	DynkomiMask uint8   `yaml:"dynkomi_mask"`
	DynkomiBase float64 `yaml:"dynkomi_base"`

	ValScale  float64 `yaml:"val_scale"`
	ValPoints float64 `yaml:"val_points"`
	ValExtra  bool    `yaml:"val_extra"`

	RootHeuristic int `yaml:"root_heuristic"`
	PriorEquiv    int `yaml:"prior_equiv"`

	Policy             string  `yaml:"policy"` // ucb1 | ucb1amaf
	Explore            float64 `yaml:"explore"`
	EquivRave          float64 `yaml:"equiv_rave"`
	RandomPolicy       string  `yaml:"random_policy"`
	RandomPolicyChance int     `yaml:"random_policy_chance"`

	PlayoutPolicy string `yaml:"playout"` // light | local
	PlayoutAMAF   bool   `yaml:"playout_amaf"`

	DumpThres int `yaml:"dumpthres"`
}

// Color mask bits for DynkomiMask.
const (
	MaskBlack uint8 = 1 << 0
	MaskWhite uint8 = 1 << 1
)

func DefaultConfig() Config {
	return Config{
		Threads:        1,
		ThreadModel:    ModelTreeVL,
		MaxTreeSize:    3072 << 20,
		ResignRatio:    0.2,
		LossThreshold:  0.85,
		Gamelen:        400,
		ExpandPlayouts: 2,
		FusekiEnd:      20,
		YoseStart:      40,
		DynkomiMask:    MaskBlack,
		DynkomiBase:    7.5,
		ValScale:       0.04,
		ValPoints:      40,
		PriorEquiv:     10,
		Policy:         "ucb1amaf",
		Explore:        0.2,
		EquivRave:      3500,
		PlayoutPolicy:  "light",
		PlayoutAMAF:    true,
		DumpThres:      1000,
	}
}

// Validate enforces the mutually exclusive flag rules. Violations are
// configuration bugs, reported before any search starts.
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	switch c.ThreadModel {
	case ModelRoot, ModelTree, ModelTreeVL:
	default:
		return fmt.Errorf("unknown thread model %q", c.ThreadModel)
	}
	if c.FastAlloc && c.ThreadModel == ModelRoot {
		return fmt.Errorf("fast_alloc not supported with root parallelization")
	}
	if (c.RandomPolicyChance > 0) != (c.RandomPolicy != "") {
		return fmt.Errorf("only one of random_policy and random_policy_chance is set")
	}
	switch c.Policy {
	case "ucb1", "ucb1amaf":
	default:
		return fmt.Errorf("unknown tree policy %q", c.Policy)
	}
	if c.RandomPolicy != "" && c.RandomPolicy != "ucb1" && c.RandomPolicy != "ucb1amaf" {
		return fmt.Errorf("unknown random policy %q", c.RandomPolicy)
	}
	switch c.PlayoutPolicy {
	case "", "light", "local":
	default:
		return fmt.Errorf("unknown playout policy %q", c.PlayoutPolicy)
	}
	return nil
}

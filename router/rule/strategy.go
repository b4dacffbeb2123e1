package rule

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/juju/errors"
	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/pkg/models/hashfunction"
	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/sharding"
)

// Strategy maps sharding values of one column to target names
// (data sources or actual tables).
type Strategy interface {
	Kind() config.StrategyType
	Column() string
	// DoSharding returns the subset of available selected by values.
	// No values means full range: every available target, in order.
	DoSharding(available []string, values []sharding.ShardingValue) ([]string, error)
}

// NewStrategy builds a strategy from its configuration; nil means no sharding.
func NewStrategy(cfg *config.StrategyCfg) (Strategy, error) {
	if cfg == nil {
		return NoneStrategy{}, nil
	}
	switch cfg.Type {
	case config.StrategyNone, "":
		return NoneStrategy{}, nil
	case config.StrategyInline:
		return NewInlineStrategy(cfg.Column, cfg.Expression)
	case config.StrategyHashMod:
		hf, err := hashfunction.HashFunctionByName(cfg.HashFunction)
		if err != nil {
			return nil, planerror.New(planerror.SHARDPLAN_CONFIG, err.Error())
		}
		if cfg.Column == "" {
			return nil, planerror.New(planerror.SHARDPLAN_CONFIG, "hash_mod strategy needs a column")
		}
		return &HashModStrategy{column: cfg.Column, hf: hf, ctype: cfg.ColumnType}, nil
	case config.StrategyBoundary:
		return NewBoundaryStrategy(cfg.Column, cfg.Bounds)
	default:
		return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "unknown sharding strategy type %q", cfg.Type)
	}
}

// collect routes every value and intersects the resulting target sets with
// available. The order is the first value's target order.
func collect(available []string, values []sharding.ShardingValue, route func(v sharding.ShardingValue) ([]string, error)) ([]string, error) {
	if len(values) == 0 {
		return append([]string(nil), available...), nil
	}
	allowed := make(map[string]int, len(available))
	for _, a := range available {
		allowed[a] = 0
	}
	var first []string
	for i, v := range values {
		targets, err := route(v)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			first = targets
		}
		seen := map[string]struct{}{}
		for _, t := range targets {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := allowed[t]; ok {
				allowed[t]++
			}
		}
	}
	var res []string
	for _, t := range first {
		if allowed[t] == len(values) {
			res = append(res, t)
			allowed[t] = -1
		}
	}
	return res, nil
}

type NoneStrategy struct{}

var _ Strategy = NoneStrategy{}

func (NoneStrategy) Kind() config.StrategyType { return config.StrategyNone }
func (NoneStrategy) Column() string            { return "" }

func (NoneStrategy) DoSharding(available []string, _ []sharding.ShardingValue) ([]string, error) {
	return append([]string(nil), available...), nil
}

var inlineRe = regexp.MustCompile(`^([^$]*)\$\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:%\s*(\d+)\s*)?\}(.*)$`)

// InlineStrategy evaluates expressions like "t_order_${order_id % 2}".
type InlineStrategy struct {
	column string
	prefix string
	suffix string
	mod    int64
}

var _ Strategy = &InlineStrategy{}

func NewInlineStrategy(column, expression string) (*InlineStrategy, error) {
	m := inlineRe.FindStringSubmatch(expression)
	if m == nil {
		return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "cannot parse inline expression %q", expression)
	}
	if column == "" {
		column = m[2]
	}
	if m[2] != column {
		return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "inline expression %q does not use sharding column %q", expression, column)
	}
	s := &InlineStrategy{column: column, prefix: m[1], suffix: m[4]}
	if m[3] != "" {
		mod, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil || mod <= 0 {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "bad modulus in inline expression %q", expression)
		}
		s.mod = mod
	}
	return s, nil
}

func (s *InlineStrategy) Kind() config.StrategyType { return config.StrategyInline }
func (s *InlineStrategy) Column() string            { return s.column }

func (s *InlineStrategy) target(v any) (string, error) {
	n, err := hashfunction.AsInt64(v)
	if err != nil {
		if str, ok := v.(string); ok && s.mod == 0 {
			return s.prefix + str + s.suffix, nil
		}
		return "", errors.NotValidf("sharding value %v for column %s", v, s.column)
	}
	if s.mod > 0 {
		n %= s.mod
		if n < 0 {
			n += s.mod
		}
	}
	return s.prefix + strconv.FormatInt(n, 10) + s.suffix, nil
}

func (s *InlineStrategy) DoSharding(available []string, values []sharding.ShardingValue) ([]string, error) {
	return collect(available, values, func(v sharding.ShardingValue) ([]string, error) {
		if !v.IsRange() {
			res := make([]string, 0, len(v.List))
			for _, item := range v.List {
				t, err := s.target(item)
				if err != nil {
					return nil, err
				}
				res = append(res, t)
			}
			return res, nil
		}
		begin, err1 := hashfunction.AsInt64(v.Range.Begin)
		end, err2 := hashfunction.AsInt64(v.Range.End)
		if err1 != nil || err2 != nil {
			return nil, errors.NotValidf("range [%v, %v] for column %s", v.Range.Begin, v.Range.End, s.column)
		}
		limit := s.mod
		if limit == 0 {
			limit = int64(len(available)) + 1
		}
		// span is computed unsigned, end-begin overflows int64 on wide ranges.
		if end < begin || uint64(end)-uint64(begin) >= uint64(limit-1) {
			return append([]string(nil), available...), nil
		}
		res := make([]string, 0, int(end-begin)+1)
		for i := int64(0); i <= end-begin; i++ {
			t, err := s.target(begin + i)
			if err != nil {
				return nil, err
			}
			res = append(res, t)
		}
		return res, nil
	})
}

// HashModStrategy picks available[hash(value) % len(available)].
type HashModStrategy struct {
	column string
	hf     hashfunction.HashFunctionType
	ctype  string
}

var _ Strategy = &HashModStrategy{}

func (s *HashModStrategy) Kind() config.StrategyType { return config.StrategyHashMod }
func (s *HashModStrategy) Column() string            { return s.column }

func (s *HashModStrategy) DoSharding(available []string, values []sharding.ShardingValue) ([]string, error) {
	if len(available) == 0 {
		return nil, nil
	}
	return collect(available, values, func(v sharding.ShardingValue) ([]string, error) {
		if v.IsRange() {
			return append([]string(nil), available...), nil
		}
		res := make([]string, 0, len(v.List))
		for _, item := range v.List {
			h, err := hashfunction.ApplyHashFunction(item, s.ctype, s.hf)
			if err != nil {
				return nil, errors.Annotatef(err, "hash %s value %v", s.column, item)
			}
			res = append(res, available[h%uint64(len(available))])
		}
		return res, nil
	})
}

// Bound starts a key range: values in [Lower, next bound's Lower) go to Target.
type Bound struct {
	Lower  int64
	Target string
}

// BoundaryStrategy routes by key ranges described by their lower bounds.
type BoundaryStrategy struct {
	column string
	bounds []Bound
}

var _ Strategy = &BoundaryStrategy{}

func NewBoundaryStrategy(column string, cfg []config.BoundCfg) (*BoundaryStrategy, error) {
	if column == "" || len(cfg) == 0 {
		return nil, planerror.New(planerror.SHARDPLAN_CONFIG, "boundary strategy needs a column and at least one bound")
	}
	bounds := make([]Bound, 0, len(cfg))
	for _, b := range cfg {
		bounds = append(bounds, Bound{Lower: b.Lower, Target: b.Target})
	}
	sort.SliceStable(bounds, func(i, j int) bool { return bounds[i].Lower < bounds[j].Lower })
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Lower == bounds[i-1].Lower {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "duplicate lower bound %d", bounds[i].Lower)
		}
	}
	return &BoundaryStrategy{column: column, bounds: bounds}, nil
}

func (s *BoundaryStrategy) Kind() config.StrategyType { return config.StrategyBoundary }
func (s *BoundaryStrategy) Column() string            { return s.column }

// owner returns the index of the bound whose range contains n, or -1.
func (s *BoundaryStrategy) owner(n int64) int {
	idx := sort.Search(len(s.bounds), func(i int) bool { return s.bounds[i].Lower > n })
	return idx - 1
}

func (s *BoundaryStrategy) DoSharding(available []string, values []sharding.ShardingValue) ([]string, error) {
	return collect(available, values, func(v sharding.ShardingValue) ([]string, error) {
		if !v.IsRange() {
			res := make([]string, 0, len(v.List))
			for _, item := range v.List {
				n, err := hashfunction.AsInt64(item)
				if err != nil {
					return nil, errors.NotValidf("sharding value %v for column %s", item, s.column)
				}
				if i := s.owner(n); i >= 0 {
					res = append(res, s.bounds[i].Target)
				}
			}
			return res, nil
		}
		begin, err1 := hashfunction.AsInt64(v.Range.Begin)
		end, err2 := hashfunction.AsInt64(v.Range.End)
		if err1 != nil || err2 != nil {
			return nil, errors.NotValidf("range [%v, %v] for column %s", v.Range.Begin, v.Range.End, s.column)
		}
		if end < begin {
			return append([]string(nil), available...), nil
		}
		first := s.owner(begin)
		if first < 0 {
			first = 0
		}
		var res []string
		for i := first; i < len(s.bounds) && s.bounds[i].Lower <= end; i++ {
			res = append(res, s.bounds[i].Target)
		}
		return res, nil
	})
}

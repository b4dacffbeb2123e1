package rule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
)

// DataNode is one physical table on one data source.
type DataNode struct {
	DataSource string `json:"data_source"`
	Table      string `json:"table"`
}

func (dn DataNode) String() string {
	return dn.DataSource + "." + dn.Table
}

var placeholderRe = regexp.MustCompile(`\$\{([^}]*)\}`)

// ExpandDataNodes expands an inline node expression such as
// "ds_${0..1}.t_order_${0..1}" or "ds_0.t_user, ds_${['1','2']}.t_user"
// into the data nodes it denotes, in declaration order.
func ExpandDataNodes(expr string) ([]DataNode, error) {
	var nodes []DataNode
	for _, segment := range splitTopLevel(expr) {
		expanded, err := expandSegment(segment)
		if err != nil {
			return nil, err
		}
		for _, name := range expanded {
			ds, table, ok := strings.Cut(name, ".")
			if !ok || ds == "" || table == "" {
				return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "data node %q must look like <data_source>.<table>", name)
			}
			nodes = append(nodes, DataNode{DataSource: ds, Table: table})
		}
	}
	return nodes, nil
}

// splitTopLevel splits on commas that are not inside ${...}.
func splitTopLevel(expr string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range expr {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(expr[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

func expandSegment(segment string) ([]string, error) {
	loc := placeholderRe.FindStringSubmatchIndex(segment)
	if loc == nil {
		return []string{segment}, nil
	}
	values, err := placeholderValues(segment[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}
	prefix, rest := segment[:loc[0]], segment[loc[1]:]
	tails, err := expandSegment(rest)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(values)*len(tails))
	for _, v := range values {
		for _, tail := range tails {
			res = append(res, prefix+v+tail)
		}
	}
	return res, nil
}

// placeholderValues understands "a..b" integer ranges and "[x, 'y']" lists.
func placeholderValues(body string) ([]string, error) {
	body = strings.TrimSpace(body)
	if from, to, ok := strings.Cut(body, ".."); ok {
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "bad range bound in ${%s}", body)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "bad range bound in ${%s}", body)
		}
		if hi < lo {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "empty range ${%s}", body)
		}
		res := make([]string, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			res = append(res, strconv.Itoa(i))
		}
		return res, nil
	}
	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		var res []string
		for _, item := range strings.Split(body[1:len(body)-1], ",") {
			item = strings.Trim(strings.TrimSpace(item), `'"`)
			if item == "" {
				continue
			}
			res = append(res, item)
		}
		if len(res) == 0 {
			return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "empty list ${%s}", body)
		}
		return res, nil
	}
	return nil, planerror.Newf(planerror.SHARDPLAN_CONFIG, "unsupported placeholder ${%s}", body)
}

package criteria

import (
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
)

// WithStatus filters requests by one or more statuses.
func WithStatus(statuses ...request.Status) *dao.Parameter {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return dao.NewParameter(dao.ParamStatus, values...)
}

// WithTarget filters requests addressing the same content.
func WithTarget(target request.Target) *dao.Parameter {
	return &dao.Parameter{Name: dao.ParamTarget, Value: target.Key()}
}

// WithLimit caps the number of returned requests.
func WithLimit(limit int) *dao.Parameter {
	return &dao.Parameter{Name: dao.ParamLimit, Value: limit}
}

// Statuses returns the status filter values, nil when absent.
func Statuses(parameters []*dao.Parameter) []string {
	for _, p := range parameters {
		if p == nil || p.Name != dao.ParamStatus {
			continue
		}
		switch actual := p.Value.(type) {
		case string:
			return []string{actual}
		case []string:
			return actual
		}
	}
	return nil
}

// TargetKey returns the target filter value, empty when absent.
func TargetKey(parameters []*dao.Parameter) string {
	for _, p := range parameters {
		if p != nil && p.Name == dao.ParamTarget {
			if v, ok := p.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// Limit returns the limit filter value, 0 when absent.
func Limit(parameters []*dao.Parameter) int {
	for _, p := range parameters {
		if p != nil && p.Name == dao.ParamLimit {
			if v, ok := p.Value.(int); ok && v > 0 {
				return v
			}
		}
	}
	return 0
}

// Match reports whether r satisfies the status and target filters.
func Match(r *request.DeletionRequest, parameters []*dao.Parameter) bool {
	if r == nil {
		return false
	}
	if statuses := Statuses(parameters); len(statuses) > 0 {
		matched := false
		for _, s := range statuses {
			if string(r.Status) == s {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if key := TargetKey(parameters); key != "" && r.Target.Key() != key {
		return false
	}
	return true
}

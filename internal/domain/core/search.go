package core

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// RankEmployees orders employees by how closely their name or email matches q.
// Employees that do not match at all are dropped. A blank query returns the input.
func RankEmployees(q string, employees []Employee) []Employee {
	q = strings.TrimSpace(q)
	if q == "" {
		return employees
	}
	words := make([]string, len(employees))
	for i, emp := range employees {
		words[i] = emp.FullName() + " " + emp.Email + " " + emp.EmployeeNumber
	}
	ranks := fuzzy.RankFindNormalizedFold(q, words)
	sort.Sort(ranks)

	out := make([]Employee, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, employees[rank.OriginalIndex])
	}
	return out
}

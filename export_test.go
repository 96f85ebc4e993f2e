// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

// ResourceCounts returns the number of statements and result sets opened and
// closed through the "sqlite3_tracked" driver by the named test.
func ResourceCounts(testName string) (openedStmts, closedStmts, openedRows, closedRows int) {
	countsMutex.Lock()
	defer countsMutex.Unlock()
	rc, ok := counts[testName]
	if !ok {
		return 0, 0, 0, 0
	}
	return rc.openedStmts, rc.closedStmts, rc.openedRows, rc.closedRows
}

func Unregister(key string) {
	unregister(key)
}

func FuncPackage(name string) string {
	return funcPackage(name)
}

func PlanCacheLen() int {
	return plans.Len()
}

func PurgePlanCache() {
	plans.Purge()
}

func NewBinds(n int) *Binds {
	return newBinds(n)
}

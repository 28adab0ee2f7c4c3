package twoway

// propagateRemoval performs the depth-first post-order walk of spec §4.6: a
// non-leaf line becomes removed iff every child is removed and the line has
// no surviving ParamSite of its own, except a cte-header line, which is
// never removed solely from child removal.
func propagateRemoval(roots []*LogicalLine) {
	for _, r := range roots {
		propagateOne(r)
	}
}

func propagateOne(u *LogicalLine) bool {
	allChildrenRemoved := true
	for _, c := range u.Children {
		if !propagateOne(c) {
			allChildrenRemoved = false
		}
	}

	if u.Removed {
		return true
	}
	if len(u.Children) == 0 {
		return false
	}
	if u.Kind == FragmentCTEHeader {
		return false
	}
	if allChildrenRemoved && !ownsSurvivingSite(u) {
		u.Removed = true
		return true
	}
	return false
}

// ownsSurvivingSite reports whether u itself carries a ParamSite of its own.
// By the time propagateOne reaches this check u.Removed is already false,
// so any site here bound successfully rather than triggering removal; a
// line with zero sites is pure structure (a bare "AND (" or a separator)
// and contributes nothing once every child is gone.
func ownsSurvivingSite(u *LogicalLine) bool {
	return len(u.Sites) > 0
}

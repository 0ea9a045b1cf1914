package deviation

// Reward of a single move, defined only on the classes of the way left and
// the way entered. Staying on the planned trip before the disruption pays,
// entering the disrupted region or falling back from it costs, moving inside
// it is free and getting past it pays.
func Reward(from, to Class) float64 {
	switch {
	case from == Start && to == Start:
		return 1
	case from == Start && to == Deviation:
		return -1
	case from == Deviation && to == Start:
		return -1
	case from == Deviation && to == Deviation:
		return 0
	case from == Deviation && to == Terminal:
		return 1
	}
	return 0
}

package energy

// Package energy converts a battery state-of-charge target into the
// energy still to be delivered. ComputeRemainingDemandWh is the pure
// conversion; Cache memoizes it per request so that tight polling loops
// neither recompute nor log when nothing changed.

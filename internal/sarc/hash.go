package sarc

// HashName computes the SFAT name hash of name: a left-to-right scan
// where each byte updates the running hash as hash*multiplier + byte,
// with u32 wraparound. The result is the archive's sort and lookup
// key. Distinct names may collide; callers must disambiguate by
// comparing the actual strings, never by hash alone.
func HashName(multiplier uint32, name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*multiplier + uint32(name[i])
	}
	return h
}

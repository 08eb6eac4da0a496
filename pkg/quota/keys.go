package quota

// Storage keys follow "{feature}_{mode}_{ownerSegment}". The owner segment
// is always present: anonymous usage maps to a reserved segment instead of
// being elided, so two features can never collide on a bare default key.

const anonymousSegment = "anonymous"

func storageKey(feature string, mode WindowMode, owner Owner) string {
	return keyPrefix(feature, mode) + ownerSegment(owner)
}

func keyPrefix(feature string, mode WindowMode) string {
	return feature + "_" + string(mode) + "_"
}

func ownerSegment(owner Owner) string {
	if owner.IsAnonymous() {
		return anonymousSegment
	}
	return owner.Key()
}

package cache

import "strings"

// Keys builds the storage keys of the snapshot.
type Keys struct {
	// Namespace prefixes every key ("mlb" -> "mlb:players"). Empty means bare keys.
	Namespace string
}

// Players is the key of the serialized aggregate set.
func (k Keys) Players() string { return k.join("players") }

// Teams is the key of the serialized team directory.
func (k Keys) Teams() string { return k.join("teams") }

// Timestamp is the key of the save time in epoch milliseconds.
func (k Keys) Timestamp() string { return k.join("playersTimestamp") }

// All returns every snapshot key.
func (k Keys) All() []string {
	return []string{k.Players(), k.Teams(), k.Timestamp()}
}

func (k Keys) join(name string) string {
	ns := strings.Trim(k.Namespace, ":")
	if ns == "" {
		return name
	}
	return ns + ":" + name
}

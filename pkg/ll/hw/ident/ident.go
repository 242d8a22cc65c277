// Package ident derives the device unique seed for static random addresses.
package ident

import (
	"hash/fnv"

	"github.com/denisbrodbeck/machineid"
)

// Seed retrieves a 32-bit value that is unique per physical device and
// stable across restarts, suitable for Radio.StaticRandomAddressSeed.
func Seed() uint32 {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

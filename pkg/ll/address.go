package ll

import "fmt"

// Address is a 48-bit link layer device address, least significant byte
// first.
type Address [6]byte

// GenerateStaticRandomAddress derives a static random address from a device
// specific seed. The derivation is deterministic so the address stays the
// same every time the device starts. The two most significant bits are set
// as required for static random addresses.
func GenerateStaticRandomAddress(seed uint32) Address {
	var addr Address
	state := uint64(seed)*0x9e3779b97f4a7c15 + 0x632be59bd9b4e019
	for i := range addr {
		state ^= state >> 29
		state *= 0xbf58476d1ce4e5b9
		addr[i] = byte(state >> 56)
	}
	addr[5] |= 0xc0
	return addr
}

// IsStaticRandom checks the two most significant bits marking a static
// random address.
func (a Address) IsStaticRandom() bool {
	return a[5]&0xc0 == 0xc0
}

// String implements fmt.Stringer, most significant byte first.
func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a[5], a[4], a[3], a[2], a[1], a[0])
}

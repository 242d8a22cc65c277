package ll

// Channel is an RF channel index for one scheduled operation.
type Channel int

// Channel index bounds. Indices 0-36 are data channels, 37-39 are
// advertising channels.
const (
	MinDataChannel        Channel = 0
	MaxDataChannel        Channel = 36
	MinAdvertisingChannel Channel = 37
	MaxAdvertisingChannel Channel = 39
)

// IsValid checks if the channel index is usable at all.
func (c Channel) IsValid() bool {
	return c >= MinDataChannel && c <= MaxAdvertisingChannel
}

// IsAdvertising checks if the channel is an advertising channel.
func (c Channel) IsAdvertising() bool {
	return c >= MinAdvertisingChannel && c <= MaxAdvertisingChannel
}

// IsData checks if the channel is a data channel.
func (c Channel) IsData() bool {
	return c >= MinDataChannel && c <= MaxDataChannel
}

package ll

// WriteBuffer is an immutable view into PDU bytes to be transmitted. The
// underlying storage is owned by the buffer management collaborator and must
// not be modified while a scheduling operation referencing it is outstanding.
// An empty WriteBuffer is never a valid transmit request.
type WriteBuffer []byte

// Empty checks if the view contains no bytes.
func (b WriteBuffer) Empty() bool { return len(b) == 0 }

// Len returns the number of bytes in the view.
func (b WriteBuffer) Len() int { return len(b) }

// ReadBuffer is a mutable view into storage owned by the buffer management
// collaborator. The hardware backend copies received bytes into it before the
// completion callback fires. An empty ReadBuffer passed to an advertising
// operation means "transmit only, do not open the receiver".
type ReadBuffer []byte

// Empty checks if the view has no capacity.
func (b ReadBuffer) Empty() bool { return len(b) == 0 }

// Cap returns the capacity of the view in bytes.
func (b ReadBuffer) Cap() int { return len(b) }

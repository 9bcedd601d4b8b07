package chip8

// NumKeys is the number of keys on the hexadecimal keypad.
const NumKeys = 16

// Keypad holds the state of the 16-key hexadecimal keypad.
// The host feeds it press and release edges with Set.
type Keypad struct {
	down    [NumKeys]bool
	last    byte // most recently pressed key, valid if pressed
	pressed bool
}

// Reset releases every key and forgets the last pressed key.
func (k *Keypad) Reset() { *k = Keypad{} }

// Set records a press (down) or release of the given key.
// Keys outside 0-F are ignored.
func (k *Keypad) Set(key byte, down bool) {
	if key >= NumKeys {
		return
	}
	if down && !k.down[key] {
		k.last, k.pressed = key, true
	}
	k.down[key] = down
}

// IsDown reports whether key is held.
func (k *Keypad) IsDown(key byte) bool {
	return key < NumKeys && k.down[key]
}

// LastPressed returns the key most recently pressed. It reports false if no
// key has been pressed since the Keypad was reset or since the machine began
// waiting for a key.
func (k *Keypad) LastPressed() (byte, bool) { return k.last, k.pressed }

func (k *Keypad) forget() { k.pressed = false }

package codec

import "encoding/binary"

// scrambleFromWord is the first payload word that gets whitened.  Word 0
// carries the address field itself, which a receiver must be able to read
// before it knows the key to descramble anything - so the address word is
// always left in clear and only the remaining words are whitened.
const scrambleFromWord = 1

// scramble XOR-whitens payload words 1..4 with a deterministic,
// address-and-version-keyed keystream (spec §4.4 step 2 / Glossary
// "Whitening"), leaving word 0 (the address) in clear so a receiver can key
// its own descramble pass from it.  This is privacy-lite, not
// cryptographic: the same transform run twice is the identity
// (Descramble(Scramble(x)) == x, spec §8), which is all the protocol
// requires.
func scramble(payload *[PayloadBytes]byte, address uint32, version byte) {
	key := whiteningKeystream(address, version)
	for i := scrambleFromWord; i < WordCount; i++ {
		word := binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
		word ^= key[i]
		binary.LittleEndian.PutUint32(payload[i*4:i*4+4], word)
	}
}

// descramble is scramble's own inverse, XOR being self-inverting.
func descramble(payload *[PayloadBytes]byte, address uint32, version byte) {
	scramble(payload, address, version)
}

// whiteningKeystream derives five 32-bit keystream words from the address
// and version byte using a small linear-congruential mix, deterministic
// and address-keyed so that two aircraft scramble their payload
// differently, as the spec's "keyed XOR whitening" requires.
func whiteningKeystream(address uint32, version byte) [WordCount]uint32 {
	var keystream [WordCount]uint32
	state := address*2654435761 + uint32(version)*40503 + 1
	for i := range keystream {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		keystream[i] = state
	}
	return keystream
}

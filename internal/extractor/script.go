package extractor

// Script opcode decoding for unlocking scripts. Kept free of any
// chain-specific knowledge beyond the push-length convention: opcodes 1
// through 78 push data and consume opcode+1 bytes including themselves;
// every other byte is a single opcode.

const (
	opPushMin = 0x01
	opPushMax = 0x4e // OP_PUSHDATA4
)

// scriptOps returns the ordered opcode values of a script. Push payload
// bytes are skipped, truncated trailing pushes are tolerated: the push
// opcode is still reported even if its payload runs past the end.
func scriptOps(script []byte) []byte {
	ops := make([]byte, 0, len(script))
	for i := 0; i < len(script); {
		op := script[i]
		ops = append(ops, op)
		if op >= opPushMin && op <= opPushMax {
			i += int(op) + 1
		} else {
			i++
		}
	}
	return ops
}

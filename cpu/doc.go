// Package cpu implements the processor and assembler for the UVM system.
//
// The processor consists of a byte-offset instruction pointer (IP) into a
// program image, 32 32-bit registers (r0-r31) and 1024 32-bit cells of data
// memory. There is no control flow: instructions execute in image order,
// and the processor halts when IP runs off the end of the image.
//
// Instructions are 2 or 4 bytes, little endian, with the opcode in the low
// nibble of the first byte followed by the B and C operand fields:
//
//	LOAD_CONST  (12)  4 bytes  B: bits 4-25   C: bits 26-30  r[C] = B
//	READ_MEM    (10)  4 bytes  B: bits 4-20   C: bits 21-25  r[C] = mem[B]
//	WRITE_MEM   (7)   2 bytes  B: bits 4-8    C: bits 9-13   mem[C] = r[B]
//	BITREVERSE  (1)   2 bytes  B: bits 4-8    C: bits 9-13   r[C] = reverse(r[B])
//
// The 5-bit C field of WRITE_MEM only reaches data memory cells 0-31.
//
// The assembler accepts one instruction per line, with ';' comments,
// '.equ' equates, '.macro'/'.endm' macros and compile-time $(...)
// expressions.
package cpu

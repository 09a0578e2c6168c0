// Package memory implements the byte addressable main memory of the Pep/9
// machine, with a memory mapped input port and output port.
//
// Reading the input port consumes a byte from a pending input queue. When
// the queue is empty the read waits: the non-blocking TryReadByte reports
// READ_BLOCKED, while ReadByte services the host through its Poller until
// input arrives or the wait is cancelled.
//
// Errors are sticky. A failed access records the error, which stays
// visible through HadError and ErrorMessage until ClearErrors.
package memory

import (
	"log"
	"maps"
	"slices"

	"github.com/ezrec/pep9/pep"
)

const (
	DefaultSize = 0x10000 // Default size of memory, in bytes.
)

// ReadStatus is the outcome of a non-blocking read.
type ReadStatus int

const (
	READ_OK      = ReadStatus(iota) // Value is valid.
	READ_BLOCKED                    // Input port has no data yet.
	READ_ERROR                      // Access failed, see Memory.Err.
)

// Listener receives memory change notifications.
type Listener interface {
	// MemoryChanged is sent when a byte takes a new value.
	MemoryChanged(address uint16, old, new uint8)
	// CharacterOutput is sent for each byte written to the output port.
	CharacterOutput(value uint8)
	// InputRequested is sent when a read of the input port starts to wait.
	InputRequested()
}

// Poller is called repeatedly while a read of the input port waits. It
// should deliver pending host events, ie AppendInput or CancelInputWait.
type Poller interface {
	Poll()
}

// Memory is the main memory of the machine.
type Memory struct {
	Verbose  bool     // Set to enable verbose logging.
	Listener Listener // Change notifications, may be nil.
	Poller   Poller   // Host event pump for input waits, may be nil.

	data    []uint8
	inPort  uint16
	outPort uint16

	input     []uint8
	waiting   bool
	cancelled bool

	written  map[uint16]bool
	modified map[uint16]bool

	err error
}

// NewMemory creates a zeroed memory of the given size, using the standard
// Pep/9 port addresses.
func NewMemory(size int) (mem *Memory) {
	mem = &Memory{
		inPort:   pep.CHAR_IN,
		outPort:  pep.CHAR_OUT,
		written:  map[uint16]bool{},
		modified: map[uint16]bool{},
	}

	if size <= 0 || size > DefaultSize {
		size = DefaultSize
	}
	mem.data = make([]uint8, size)

	return
}

// Size of the memory in bytes.
func (mem *Memory) Size() int {
	return len(mem.data)
}

// SetPorts moves the input and output ports. A port occupies the even/odd
// byte pair containing its address.
func (mem *Memory) SetPorts(input, output uint16) {
	mem.inPort = input
	mem.outPort = output
}

// Ports returns the configured input and output port addresses.
func (mem *Memory) Ports() (input, output uint16) {
	return mem.inPort, mem.outPort
}

// IsInputPort is true for both bytes of the input port pair.
func (mem *Memory) IsInputPort(address uint16) bool {
	return address&^1 == mem.inPort&^1
}

// IsOutputPort is true for both bytes of the output port pair.
func (mem *Memory) IsOutputPort(address uint16) bool {
	return address&^1 == mem.outPort&^1
}

// Resize reallocates memory, zeroing all contents.
func (mem *Memory) Resize(size int) (err error) {
	if size <= 0 || size > DefaultSize {
		err = ErrSize
		return
	}

	mem.data = make([]uint8, size)
	clear(mem.written)
	clear(mem.modified)

	return
}

// Clear zeroes memory and forgets the written and modified sets.
func (mem *Memory) Clear() {
	clear(mem.data)
	clear(mem.written)
	clear(mem.modified)
}

// ClearErrors resets the sticky error state.
func (mem *Memory) ClearErrors() {
	mem.err = nil
}

// ClearWritten forgets the bytes written during the last step.
func (mem *Memory) ClearWritten() {
	clear(mem.written)
}

// ClearModified forgets the bytes modified since the last clear.
func (mem *Memory) ClearModified() {
	clear(mem.modified)
}

// ClearInput drops any pending input and ends a wait.
func (mem *Memory) ClearInput() {
	mem.input = mem.input[:0]
	mem.waiting = false
	mem.cancelled = false
}

// HadError is true if an access failed since the last ClearErrors.
func (mem *Memory) HadError() bool {
	return mem.err != nil
}

// Err returns the sticky error, or nil.
func (mem *Memory) Err() error {
	return mem.err
}

// ErrorMessage describes the sticky error, or is empty.
func (mem *Memory) ErrorMessage() string {
	if mem.err == nil {
		return ""
	}
	return mem.err.Error()
}

// Written returns the sorted addresses written during the last step.
func (mem *Memory) Written() []uint16 {
	return slices.Sorted(maps.Keys(mem.written))
}

// Modified returns the sorted addresses modified since the last clear.
func (mem *Memory) Modified() []uint16 {
	return slices.Sorted(maps.Keys(mem.modified))
}

// Bytes returns a copy of the memory contents.
func (mem *Memory) Bytes() []uint8 {
	return slices.Clone(mem.data)
}

// Waiting is true while a read of the input port is outstanding, and
// neither input nor a cancellation has arrived for it.
func (mem *Memory) Waiting() bool {
	return mem.waiting && !mem.cancelled && len(mem.input) == 0
}

// Pending returns the number of queued input bytes.
func (mem *Memory) Pending() int {
	return len(mem.input)
}

func (mem *Memory) fail(address uint16, err error) error {
	err = &ErrAccess{Address: address, Err: err}
	if mem.err == nil {
		mem.err = err
	}
	if mem.Verbose {
		log.Printf("memory: %v", err)
	}
	return err
}

func (mem *Memory) inBounds(address uint16) bool {
	return int(address) < len(mem.data)
}

// Byte returns the stored byte without side effects. Ports are not
// consumed, and out of bounds addresses read as zero.
func (mem *Memory) Byte(address uint16) uint8 {
	if !mem.inBounds(address) {
		return 0
	}
	return mem.data[address]
}

// Word returns the stored big-endian word without side effects.
func (mem *Memory) Word(address uint16) uint16 {
	if address == 0xffff {
		return 0
	}
	return uint16(mem.Byte(address))<<8 | uint16(mem.Byte(address+1))
}

// TryReadByte reads a byte without waiting. A read of the input port with
// no queued input reports READ_BLOCKED, unless the wait was cancelled, in
// which case the memory records ErrNoInput and reports READ_ERROR.
func (mem *Memory) TryReadByte(address uint16) (value uint8, status ReadStatus) {
	value, status, _ = mem.tryRead(address)
	return
}

// tryRead is TryReadByte, also returning the error of this access.
func (mem *Memory) tryRead(address uint16) (value uint8, status ReadStatus, err error) {
	if !mem.inBounds(address) {
		err = mem.fail(address, ErrOutOfBounds)
		status = READ_ERROR
		return
	}

	if !mem.IsInputPort(address) {
		value = mem.data[address]
		return
	}

	if len(mem.input) > 0 {
		value = mem.input[0]
		mem.input = mem.input[1:]
		mem.waiting = false
		mem.cancelled = false
		if mem.Verbose {
			log.Printf("memory: input 0x%02x", value)
		}
		return
	}

	if mem.cancelled {
		mem.waiting = false
		mem.cancelled = false
		err = mem.fail(address, ErrNoInput)
		status = READ_ERROR
		return
	}

	if !mem.waiting {
		mem.waiting = true
		if mem.Listener != nil {
			mem.Listener.InputRequested()
		}
	}

	status = READ_BLOCKED
	return
}

// ReadByte reads a byte, waiting on the input port until input arrives or
// the wait is cancelled. Without a Poller no input can arrive, so the wait
// is cancelled immediately. The error is that of this read, even when an
// earlier error is still recorded.
func (mem *Memory) ReadByte(address uint16) (value uint8, err error) {
	for {
		var status ReadStatus
		value, status, err = mem.tryRead(address)
		if status != READ_BLOCKED {
			return
		}

		switch {
		case !mem.Waiting():
			// Released by the listener.
		case mem.Poller == nil:
			mem.CancelInputWait()
		default:
			mem.Poller.Poll()
		}
	}
}

// ReadWord reads a big-endian word. The top address has no successor, so
// a word read there returns 0 without reading.
func (mem *Memory) ReadWord(address uint16) (value uint16, err error) {
	if address == 0xffff {
		return
	}

	hi, err := mem.ReadByte(address)
	if err != nil {
		return
	}
	lo, err := mem.ReadByte(address + 1)
	if err != nil {
		return
	}

	value = uint16(hi)<<8 | uint16(lo)
	return
}

// store updates a byte, tracking the change. Returns false if unchanged.
func (mem *Memory) store(address uint16, value uint8) bool {
	old := mem.data[address]
	if old == value {
		return false
	}

	mem.data[address] = value
	mem.written[address] = true
	mem.modified[address] = true

	if mem.Listener != nil {
		mem.Listener.MemoryChanged(address, old, value)
	}

	return true
}

// WriteByte writes a byte. Writing the value already stored changes
// nothing and notifies nobody. Every write to the output port is sent to
// the Listener as a character.
func (mem *Memory) WriteByte(address uint16, value uint8) (err error) {
	if !mem.inBounds(address) {
		err = mem.fail(address, ErrOutOfBounds)
		return
	}

	if mem.IsOutputPort(address) {
		if mem.Verbose {
			log.Printf("memory: output 0x%02x", value)
		}
		if mem.Listener != nil {
			mem.Listener.CharacterOutput(value)
		}
	}

	mem.store(address, value)

	return
}

// WriteWord writes a big-endian word at any alignment.
func (mem *Memory) WriteWord(address uint16, value uint16) (err error) {
	err = mem.WriteByte(address, uint8(value>>8))
	if err != nil {
		return
	}
	err = mem.WriteByte(address+1, uint8(value))
	return
}

// WriteWordAligned writes a big-endian word, ignoring the lowest address
// bit as the two byte data bus does.
func (mem *Memory) WriteWordAligned(address uint16, value uint16) (err error) {
	return mem.WriteWord(address&^1, value)
}

// LoadObjectCode copies a block of object code into memory. The output
// port is not triggered.
func (mem *Memory) LoadObjectCode(start uint16, code []uint8) (err error) {
	for n, value := range code {
		address := int(start) + n
		if address >= len(mem.data) {
			err = mem.fail(uint16(address), ErrOutOfBounds)
			return
		}
		mem.store(uint16(address), value)
	}

	return
}

// AppendInput queues bytes for the input port.
func (mem *Memory) AppendInput(text string) {
	mem.input = append(mem.input, text...)
}

// CancelInputWait releases a waiting read of the input port. If no input
// is queued when the read resumes, the memory records ErrNoInput.
func (mem *Memory) CancelInputWait() {
	if mem.waiting {
		mem.cancelled = true
	}
}

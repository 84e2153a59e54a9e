package mem

import (
	"encoding/binary"
	"errors"
)

// For capacity
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
	TB uint64 = 1 << 40
)

// ErrOutOfCapacity is returned when an access goes beyond the capacity of a
// storage.
var ErrOutOfCapacity = errors.New(
	"accessing physical address beyond the storage capacity")

// A Storage keeps the data of the simulated memory.
//
// The storage manages the data in units, similar to pages. Units that are
// never touched by Read and Write are not allocated.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = 4096
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) createOrGetStorageUnit(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, ErrOutOfCapacity
	}

	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting from the address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	if address+length > s.capacity {
		return nil, ErrOutOfCapacity
	}

	currAddr := address
	dataOffset := uint64(0)
	res := make([]byte, length)

	for dataOffset < length {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return nil, err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := min(length-dataOffset, baseAddr+s.unitSize-currAddr)

		copy(res[dataOffset:dataOffset+lenToRead],
			unit[inUnitAddr:inUnitAddr+lenToRead])
		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write copies the data into the storage starting from the address.
func (s *Storage) Write(address uint64, data []byte) error {
	if address+uint64(len(data)) > s.capacity {
		return ErrOutOfCapacity
	}

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(uint64(len(data))-dataOffset,
			baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])
		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

// ReadUint64 reads a little-endian 64-bit value at the address.
func (s *Storage) ReadUint64(address uint64) (uint64, error) {
	data, err := s.Read(address, 8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(data), nil
}

// WriteUint64 writes a little-endian 64-bit value at the address.
func (s *Storage) WriteUint64(address uint64, value uint64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, value)

	return s.Write(address, data)
}

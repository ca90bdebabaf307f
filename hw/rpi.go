package hw

import (
	"fmt"
	"strconv"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Indices of the 11 I/O-port pins in a PinMap.IO slice, in wire
// order: the two request lines, the ack line, then 8 data-bus pins,
// LSB first.
const (
	ioHostWriteReq = 0
	ioHostReadReq  = 1
	ioAckOut       = 2
	ioDataBus0     = 3
)

// RPi is the periph.io-backed HardwarePort implementation. It drives
// real GPIO lines on whatever board periph.io's host driver supports
// (Raspberry Pi and compatibles); InitHost must succeed before
// constructing one.
type RPi struct {
	control gpio.PinOut
	reset   gpio.PinOut
	clock   gpio.PinOut

	writeEnable gpio.PinOut
	writeClock  gpio.PinOut
	progBit     gpio.PinOut

	hostWriteReq gpio.PinIn
	hostReadReq  gpio.PinIn
	ackOut       gpio.PinOut
	data         [8]gpio.PinIO
}

// InitHost loads periph.io's platform drivers. Call once before
// resolving any pins; safe to call more than once.
func InitHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("hw: periph host init: %w", err)
	}
	return nil
}

func resolvePin(n int) (gpio.PinIO, error) {
	name := "GPIO" + strconv.Itoa(n)
	p := gpioreg.ByName(name)
	if p == nil {
		// Fall back to the bare number; some periph hosts register
		// pins under their raw pin number rather than "GPIOx".
		p = gpioreg.ByName(strconv.Itoa(n))
	}
	if p == nil {
		return nil, fmt.Errorf("hw: no gpio pin registered for %q", name)
	}
	return p, nil
}

// NewRPi resolves every pin named in pm and configures its direction.
// Returns an error naming the first pin that could not be resolved or
// set to the required direction.
func NewRPi(pm PinMap) (*RPi, error) {
	control, err := outPin(pm.Control[0])
	if err != nil {
		return nil, err
	}
	reset, err := outPin(pm.Control[1])
	if err != nil {
		return nil, err
	}
	clock, err := outPin(pm.Control[2])
	if err != nil {
		return nil, err
	}

	writeEnable, err := outPin(pm.Program[0])
	if err != nil {
		return nil, err
	}
	writeClock, err := outPin(pm.Program[1])
	if err != nil {
		return nil, err
	}
	progBit, err := outPin(pm.Program[2])
	if err != nil {
		return nil, err
	}

	hostWriteReq, err := inPin(pm.IO[ioHostWriteReq])
	if err != nil {
		return nil, err
	}
	hostReadReq, err := inPin(pm.IO[ioHostReadReq])
	if err != nil {
		return nil, err
	}
	ackOut, err := outPin(pm.IO[ioAckOut])
	if err != nil {
		return nil, err
	}

	var data [8]gpio.PinIO
	for i := 0; i < 8; i++ {
		p, err := resolvePin(pm.IO[ioDataBus0+i])
		if err != nil {
			return nil, err
		}
		data[i] = p
	}

	return &RPi{
		control:      control,
		reset:        reset,
		clock:        clock,
		writeEnable:  writeEnable,
		writeClock:   writeClock,
		progBit:      progBit,
		hostWriteReq: hostWriteReq,
		hostReadReq:  hostReadReq,
		ackOut:       ackOut,
		data:         data,
	}, nil
}

func outPin(n int) (gpio.PinOut, error) {
	p, err := resolvePin(n)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hw: setting pin %d to output: %w", n, err)
	}
	return p, nil
}

func inPin(n int) (gpio.PinIn, error) {
	p, err := resolvePin(n)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hw: setting pin %d to input: %w", n, err)
	}
	return p, nil
}

func level(b bool) gpio.Level {
	if b {
		return gpio.High
	}
	return gpio.Low
}

func (r *RPi) pulse(p gpio.PinOut) {
	p.Out(gpio.High)
	time.Sleep(pulseWidth)
	p.Out(gpio.Low)
}

func (r *RPi) SetControl(v bool) {
	r.control.Out(level(v))
}

func (r *RPi) Reset() {
	r.pulse(r.reset)
}

func (r *RPi) Step() {
	r.pulse(r.clock)
}

// WriteProgram flashes code onto the EEPROM: WRITE-ENABLE held high for
// the whole transfer, each accepted character written most-significant
// bit first with a WRITE-CLOCK pulse per bit.
func (r *RPi) WriteProgram(code string) {
	r.writeEnable.Out(gpio.High)
	defer r.writeEnable.Out(gpio.Low)

	for i := 0; i < len(code); i++ {
		c := code[i]
		if !isBFChar(c) {
			continue
		}
		for _, bit := range msbBits(c) {
			r.progBit.Out(level(bit))
			r.pulse(r.writeClock)
		}
	}
}

// HandleIO polls HOST-WRITE-REQ and then HOST-READ-REQ once each and
// completes the transaction for every line that is high, so a single
// call can perform both a write and a read. Each transaction drives
// ACK-OUT and the 8-pin data bus (LSB first) per the wire protocol.
func (r *RPi) HandleIO(readByte func() byte) (out byte, gotOut bool, wrote bool) {
	if r.hostWriteReq.Read() == gpio.High {
		b := readByte()
		r.setDataBus(b)
		r.pulse(r.ackOut)
		wrote = true
	}
	if r.hostReadReq.Read() == gpio.High {
		out = r.readDataBus()
		gotOut = true
		r.pulse(r.ackOut)
	}
	return out, gotOut, wrote
}

// setDataBus drives the bidirectional data bus as output for a
// host-to-device transfer.
func (r *RPi) setDataBus(b byte) {
	bs := bits(b)
	for i, pin := range r.data {
		pin.Out(level(bs[i]))
	}
}

// readDataBus switches the bus to input for a device-to-host transfer.
func (r *RPi) readDataBus() byte {
	var bs [8]bool
	for i, pin := range r.data {
		pin.In(gpio.PullNoChange, gpio.NoEdge)
		bs[i] = pin.Read() == gpio.High
	}
	return byteFromBits(bs)
}

// Ports returns a Ports value with all three slots backed by this
// single RPi driver.
func (r *RPi) Ports() Ports {
	return Ports{IO: r, Control: r, Program: r}
}

package actor

import (
	"math"

	"github.com/berfenger/homesim/internal/core/device"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"
	"github.com/berfenger/homesim/internal/core/vehicle"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// Register layout. Every room owns a block of MODBUS_ROOM_BLOCK_SIZE
// registers starting at roomID*MODBUS_ROOM_BLOCK_SIZE.
const (
	MODBUS_ROOM_BLOCK_SIZE = 10

	// input registers, per room block
	MODBUS_IR_TEMPERATURE = 0 // °C x10, signed
	MODBUS_IR_HUMIDITY    = 1 // % x10
	MODBUS_IR_BLINDS      = 2 // % open
	MODBUS_IR_AIR_QUALITY = 3 // 0 good, 1 moderate, 2 unhealthy

	// holding registers, per room block
	MODBUS_HR_SETPOINT = 0 // °C x10, signed; writing turns the thermostat on
	MODBUS_HR_BLINDS   = 1 // % open; writing moves the blinds right away

	// input registers, vehicle block
	MODBUS_IR_VEHICLE_BLOCK   = 1000
	MODBUS_IR_VEHICLE_BATTERY = MODBUS_IR_VEHICLE_BLOCK + 0 // % x10
	MODBUS_IR_VEHICLE_PHASE   = MODBUS_IR_VEHICLE_BLOCK + 1 // 0 parked, 1 driving, 2 charging

	// coils: one per room, thermostat power. discrete inputs: one per room,
	// lights, plus the front door lock.
	MODBUS_DI_FRONT_DOOR_LOCKED = 100
)

// RegisterMap serves the environment over Modbus. Reads go straight to the
// devices, each under its own lock.
type RegisterMap struct {
	env    *service.Environment
	unitId uint8
	logger *zap.Logger
}

func NewRegisterMap(env *service.Environment, unitId uint8, logger *zap.Logger) *RegisterMap {
	return &RegisterMap{env: env, unitId: unitId, logger: logger}
}

func (m *RegisterMap) acceptsUnit(unitId uint8) bool {
	return m.unitId == 0 || m.unitId == unitId
}

// register returns the address i registers past base, or false once it
// runs past the end of the address space.
func register(base uint16, i int) (uint16, bool) {
	addr := int(base) + i
	if addr > math.MaxUint16 {
		return 0, false
	}
	return uint16(addr), true
}

func (m *RegisterMap) room(addr uint16) (domain.Room, uint16, bool) {
	id := int(addr / MODBUS_ROOM_BLOCK_SIZE)
	if id >= m.env.Rooms.Len() {
		return domain.Room{}, 0, false
	}
	return m.env.Rooms.Get(domain.RoomID(id)), addr % MODBUS_ROOM_BLOCK_SIZE, true
}

func (m *RegisterMap) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	if !m.acceptsUnit(req.UnitId) {
		return nil, modbus.ErrIllegalFunction
	}
	if int(req.Addr)+int(req.Quantity) > m.env.Rooms.Len() {
		return nil, modbus.ErrIllegalDataAddress
	}
	if req.IsWrite {
		for i, on := range req.Args {
			room := m.env.Rooms.Get(domain.RoomID(int(req.Addr) + i))
			msg := m.env.Home.Thermostat.SetPower(room.Name, on)
			m.logger.Info("modbus write", zap.String("room", room.Name), zap.String("result", msg))
		}
		return nil, nil
	}
	readings := thermostatsByRoom(m.env.Home.Thermostat.Snapshot())
	res := make([]bool, req.Quantity)
	for i := range res {
		room := m.env.Rooms.Get(domain.RoomID(int(req.Addr) + i))
		res[i] = readings[room.Name].On
	}
	return res, nil
}

func (m *RegisterMap) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	if !m.acceptsUnit(req.UnitId) {
		return nil, modbus.ErrIllegalFunction
	}
	lights := m.env.Home.Lighting.Snapshot()
	res := make([]bool, req.Quantity)
	for i := range res {
		addr := int(req.Addr) + i
		switch {
		case addr == MODBUS_DI_FRONT_DOOR_LOCKED:
			res[i] = m.env.Home.Lock.Locked()
		case addr < m.env.Rooms.Len():
			res[i] = lights[m.env.Rooms.Get(domain.RoomID(addr)).Name]
		default:
			return nil, modbus.ErrIllegalDataAddress
		}
	}
	return res, nil
}

func (m *RegisterMap) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if !m.acceptsUnit(req.UnitId) {
		return nil, modbus.ErrIllegalFunction
	}
	if req.IsWrite {
		return nil, m.writeHolding(req.Addr, req.Args)
	}
	readings := thermostatsByRoom(m.env.Home.Thermostat.Snapshot())
	res := make([]uint16, req.Quantity)
	for i := range res {
		addr, ok := register(req.Addr, i)
		if !ok {
			return nil, modbus.ErrIllegalDataAddress
		}
		room, offset, ok := m.room(addr)
		if !ok {
			return nil, modbus.ErrIllegalDataAddress
		}
		switch offset {
		case MODBUS_HR_SETPOINT:
			if sp := readings[room.Name].Setpoint; sp != nil {
				res[i] = encodeTenths(*sp)
			}
		case MODBUS_HR_BLINDS:
			p, _ := m.env.Home.Blinds.Percent(room.Name)
			res[i] = uint16(p)
		}
	}
	return res, nil
}

func (m *RegisterMap) writeHolding(addr uint16, values []uint16) error {
	// validate the whole range before touching any device
	for i := range values {
		reg, ok := register(addr, i)
		if !ok {
			return modbus.ErrIllegalDataAddress
		}
		_, offset, ok := m.room(reg)
		if !ok || (offset != MODBUS_HR_SETPOINT && offset != MODBUS_HR_BLINDS) {
			return modbus.ErrIllegalDataAddress
		}
		if offset == MODBUS_HR_BLINDS && values[i] > 100 {
			return modbus.ErrIllegalDataValue
		}
	}
	for i, v := range values {
		reg, _ := register(addr, i)
		room, offset, _ := m.room(reg)
		var msg string
		if offset == MODBUS_HR_SETPOINT {
			msg = m.env.Home.Thermostat.SetTemperature(room.Name, float64(int16(v))/10)
		} else {
			msg = m.env.Home.Blinds.SetState(room.Name, int(v))
		}
		m.logger.Info("modbus write", zap.String("room", room.Name), zap.String("result", msg))
	}
	return nil
}

func (m *RegisterMap) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	if !m.acceptsUnit(req.UnitId) {
		return nil, modbus.ErrIllegalFunction
	}
	res := make([]uint16, req.Quantity)
	for i := range res {
		addr, ok := register(req.Addr, i)
		if !ok {
			return nil, modbus.ErrIllegalDataAddress
		}
		if addr >= MODBUS_IR_VEHICLE_BLOCK {
			v, ok := m.vehicleRegister(addr)
			if !ok {
				return nil, modbus.ErrIllegalDataAddress
			}
			res[i] = v
			continue
		}
		room, offset, ok := m.room(addr)
		if !ok {
			return nil, modbus.ErrIllegalDataAddress
		}
		res[i] = m.roomRegister(room, offset)
	}
	return res, nil
}

func (m *RegisterMap) roomRegister(room domain.Room, offset uint16) uint16 {
	h := m.env.Home
	switch offset {
	case MODBUS_IR_TEMPERATURE:
		v, _ := h.Thermostat.Temperature(room.Name)
		return encodeTenths(v)
	case MODBUS_IR_HUMIDITY:
		v, _ := h.Humidity.Humidity(room.Name)
		return encodeTenths(v)
	case MODBUS_IR_BLINDS:
		p, _ := h.Blinds.Percent(room.Name)
		return uint16(p)
	case MODBUS_IR_AIR_QUALITY:
		l, _ := h.AirQuality.Level(room.Name)
		return airQualityCode(l)
	}
	return 0
}

func (m *RegisterMap) vehicleRegister(addr uint16) (uint16, bool) {
	switch addr {
	case MODBUS_IR_VEHICLE_BATTERY:
		return encodeTenths(m.env.Vehicle.Battery()), true
	case MODBUS_IR_VEHICLE_PHASE:
		return vehiclePhaseCode(m.env.Vehicle.Phase()), true
	}
	return 0, false
}

func thermostatsByRoom(readings []device.ThermostatReading) map[string]device.ThermostatReading {
	out := make(map[string]device.ThermostatReading, len(readings))
	for _, r := range readings {
		out[r.Room] = r
	}
	return out
}

func encodeTenths(v float64) uint16 {
	return uint16(int16(math.Round(v * 10)))
}

func airQualityCode(l device.AirQualityLevel) uint16 {
	switch l {
	case device.AirModerate:
		return 1
	case device.AirUnhealthy:
		return 2
	}
	return 0
}

func vehiclePhaseCode(p vehicle.Phase) uint16 {
	switch p {
	case vehicle.Driving:
		return 1
	case vehicle.Charging:
		return 2
	}
	return 0
}

var _ modbus.RequestHandler = (*RegisterMap)(nil)

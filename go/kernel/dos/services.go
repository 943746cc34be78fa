package dos

func leaves(m map[uint8]Handler) *service {
	return &service{leaves: m}
}

// defaultServices builds the built-in interrupt table. It is never changed
// after construction; Kernel.Calls overrides it.
func defaultServices() map[uint8]*service {
	return map[uint8]*service{
		0x10: leaves(map[uint8]Handler{
			0x00: int10SetMode,
			0x02: int10SetCursor,
			0x03: int10GetCursor,
			0x0e: int10Teletype,
		}),
		0x13: leaves(map[uint8]Handler{
			0x00: int13Reset,
			0x02: int13Read,
		}),
		0x16: leaves(map[uint8]Handler{
			0x00: int16ReadKey,
			0x01: int16CheckKey,
		}),
		0x1a: leaves(map[uint8]Handler{
			0x00: int1aGetTicks,
		}),
		0x20: {all: int20},
		0x21: leaves(map[uint8]Handler{
			0x00: int21Terminate,
			0x01: int21ReadChar,
			0x02: int21WriteChar,
			0x06: int21DirectIO,
			0x09: int21WriteString,
			0x19: int21GetDrive,
			0x25: int21SetVector,
			0x2a: int21GetDate,
			0x2c: int21GetTime,
			0x30: int21GetVersion,
			0x35: int21GetVector,
			0x3c: int21Create,
			0x3d: int21Open,
			0x3e: int21Close,
			0x3f: int21Read,
			0x40: int21Write,
			0x41: int21Delete,
			0x42: int21Seek,
			0x4c: int21Exit,
		}),
	}
}

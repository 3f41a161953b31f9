package model

// Types produced by allow-listed constructor calls.
const (
	TypeTime    = "time.Time"
	TypeUUID    = "uuid.UUID"
	TypeByteBuf = "[]byte"
)

// Constructor describes an allow-listed constructor call.
type Constructor struct {
	Type    string // resulting type expression
	MaxArgs int
}

// Constructors is the fixed allow-list of recognized constructor calls,
// keyed by callee as written in source.
var Constructors = map[string]Constructor{
	"time.Now":       {Type: TypeTime, MaxArgs: 0},
	"time.UnixMilli": {Type: TypeTime, MaxArgs: 1},
	"time.UnixMicro": {Type: TypeTime, MaxArgs: 1},
	"uuid.New":       {Type: TypeUUID, MaxArgs: 0},
	"uuid.MustParse": {Type: TypeUUID, MaxArgs: 1},
	"[]byte":         {Type: TypeByteBuf, MaxArgs: 1},
}

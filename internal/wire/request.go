package wire

// Field sizes shared across wire structs.
const (
	InstrumentNameSize = 32
	SymbolSize         = 50
	AccountIDSize      = 11
	ProductSize        = 32
	OptionTypeSize     = 2
)

// ContractDescription is the 96-byte nested contract identifier embedded at
// the front of every RequestMsg.
type ContractDescription struct {
	InstrumentName [InstrumentNameSize]byte // 0,  32
	Symbol         [SymbolSize]byte         // 32, 50
	_pad0          [2]byte                  // 82, 2  (align ExpiryDate to 4)
	ExpiryDate     int32                    // 84, 4
	StrikePrice    int32                    // 88, 4
	OptionType     [OptionTypeSize]byte     // 92, 2
	CALevel        int16                    // 94, 2
}

// RequestMsg is the 256-byte, 64-aligned OrderRequest wire record.
type RequestMsg struct {
	ContractDesc    ContractDescription // 0,   96
	RequestType     RequestType         // 96,  4
	OrdType         OrderType           // 100, 4
	Duration        Duration            // 104, 4
	PxType          PxType              // 108, 4
	PosDirection    PosDirection        // 112, 4
	OrderID         uint32              // 116, 4
	Token           int32               // 120, 4
	Quantity        int32               // 124, 4
	QuantityFilled  int32               // 128, 4
	DisclosedQnty   int32               // 132, 4
	Price           float64             // 136, 8
	TimeStamp       uint64              // 144, 8
	AccountID       [AccountIDSize]byte // 152, 11
	TransactionType uint8               // 163, 1
	ExchangeType    uint8               // 164, 1
	_padding        [20]byte            // 165, 20 (must-be-zero on produce)
	Product         [ProductSize]byte   // 185, 32
	_pad1           [3]byte             // 217, 3  (align StrategyID to 4)
	StrategyID      int32               // 220, 4
	_pad2           [32]byte            // 224, 32 (tail pad to 256, aligned(64))
}

// RequestMsgSize is the declared wire size of RequestMsg.
const RequestMsgSize = 256

// Zero clears the padding fields that must be zero on produce.
func (r *RequestMsg) Zero() {
	r.ContractDesc._pad0 = [2]byte{}
	r._padding = [20]byte{}
	r._pad1 = [3]byte{}
	r._pad2 = [32]byte{}
}

// Symbol returns the contract symbol as a trimmed Go string.
func (r *RequestMsg) Symbol() string {
	return trimNUL(r.ContractDesc.Symbol[:])
}

// SetSymbol copies s into the fixed Symbol field, truncating if necessary.
func (r *RequestMsg) SetSymbol(s string) {
	setFixedString(r.ContractDesc.Symbol[:], s)
}

// Side returns the request's transaction side byte.
func (r *RequestMsg) Side() byte { return r.TransactionType }

// Exchange returns the typed exchange byte.
func (r *RequestMsg) Exchange() ExchangeByte { return ExchangeByte(r.ExchangeType) }

// AccountIDString returns the AccountID as a trimmed Go string.
func (r *RequestMsg) AccountIDString() string {
	return trimNUL(r.AccountID[:])
}

func trimNUL(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

func setFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst, s)
	_ = n
}

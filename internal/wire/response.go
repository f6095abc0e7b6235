package wire

// ExchangeTradeIDSize is the fixed size of ResponseMsg.ExchangeTradeId.
const ExchangeTradeIDSize = 21

// ResponseMsg is the 176-byte OrderResponse wire record.
type ResponseMsg struct {
	ResponseType    ResponseType         // 0,   4
	ChildResponse   int32                // 4,   4
	OrderID         uint32               // 8,   4
	ErrorCode       uint32               // 12,  4
	Quantity        int32                // 16,  4
	_pad0           [4]byte              // 20,  4 (align Price to 8)
	Price           float64              // 24,  8
	TimeStamp       uint64               // 32,  8
	Side            uint8                // 40,  1
	Symbol          [SymbolSize]byte     // 41,  50
	AccountID       [AccountIDSize]byte  // 91,  11
	_pad1           [2]byte              // 102, 2 (align ExchangeOrderId to 8)
	ExchangeOrderId float64              // 104, 8
	ExchangeTradeId [ExchangeTradeIDSize]byte // 112, 21
	OpenClose       OpenClose            // 133, 1
	ExchangeID      uint8                // 134, 1
	Product         [ProductSize]byte    // 135, 32
	_pad2           [1]byte              // 167, 1 (align StrategyID to 4)
	StrategyID      int32                // 168, 4
	_pad3           [4]byte              // 172, 4 (tail pad)
}

// ResponseMsgSize is the declared wire size of ResponseMsg.
const ResponseMsgSize = 176

// Zero clears must-be-zero padding.
func (r *ResponseMsg) Zero() {
	r._pad0 = [4]byte{}
	r._pad1 = [2]byte{}
	r._pad2 = [1]byte{}
	r._pad3 = [4]byte{}
}

// SetSymbol copies s into the fixed Symbol field.
func (r *ResponseMsg) SetSymbol(s string) { setFixedString(r.Symbol[:], s) }

// SymbolString returns the trimmed Go string symbol.
func (r *ResponseMsg) SymbolString() string { return trimNUL(r.Symbol[:]) }

// SetAccountID copies s into the fixed AccountID field.
func (r *ResponseMsg) SetAccountID(s string) { setFixedString(r.AccountID[:], s) }

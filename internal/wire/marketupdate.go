package wire

// InterestLevels is the book depth carried per side in MarketUpdateNew.
const InterestLevels = 20

// MDSymbolSize is the fixed symbol field size inside MDHeaderPart.
const MDSymbolSize = 48

// BookElement is one depth level: quantity, order count, price (16 bytes).
type BookElement struct {
	Quantity   int32   // 0, 4
	OrderCount int32   // 4, 4
	Price      float64 // 8, 8
}

// MDHeaderPart is the 96-byte market-update header.
type MDHeaderPart struct {
	ExchTS       uint64              // 0,  8
	Timestamp    uint64              // 8,  8
	Seqnum       uint64              // 16, 8
	RptSeqnum    uint64              // 24, 8
	TokenId      uint64              // 32, 8
	Symbol       [MDSymbolSize]byte  // 40, 48
	SymbolID     uint16              // 88, 2
	ExchangeName uint8               // 90, 1
	_pad0        [5]byte             // 91, 5 (pad to 96)
}

// MDDataPart is the 720-byte market-update payload.
type MDDataPart struct {
	NewPrice            float64                     // 0,   8
	OldPrice            float64                     // 8,   8
	LastTradedPrice     float64                     // 16,  8
	LastTradedTime      uint64                      // 24,  8
	TotalTradedValue    float64                     // 32,  8
	TotalTradedQuantity int64                       // 40,  8
	Yield               float64                     // 48,  8
	BidUpdates          [InterestLevels]BookElement // 56,  320
	AskUpdates          [InterestLevels]BookElement // 376, 320
	NewQuant            int32                       // 696, 4
	OldQuant            int32                       // 700, 4
	LastTradedQuantity  int32                       // 704, 4
	ValidBids           int8                        // 708, 1
	ValidAsks           int8                        // 709, 1
	UpdateLevel         int8                        // 710, 1
	EndPkt              uint8                       // 711, 1
	Side                uint8                       // 712, 1
	UpdateType          uint8                       // 713, 1
	FeedType            uint8                       // 714, 1
	_pad0               [5]byte                     // 715, 5 (pad to 720)
}

// MarketUpdateNew is the 816-byte tick-update wire record.
type MarketUpdateNew struct {
	Header MDHeaderPart // 0,  96
	Data   MDDataPart   // 96, 720
}

// MarketUpdateNewSize is the declared wire size of MarketUpdateNew.
const MarketUpdateNewSize = 816

// Zero clears must-be-zero padding.
func (m *MarketUpdateNew) Zero() {
	m.Header._pad0 = [5]byte{}
	m.Data._pad0 = [5]byte{}
}

// SetSymbol copies s into the fixed header Symbol field.
func (m *MarketUpdateNew) SetSymbol(s string) { setFixedString(m.Header.Symbol[:], s) }

// SymbolString returns the trimmed Go string symbol.
func (m *MarketUpdateNew) SymbolString() string { return trimNUL(m.Header.Symbol[:]) }

package wire

import (
	"fmt"
	"unsafe"

	"jotacomputing/counterbridge/internal/staticerr"
)

// offsetCheck is one field's expected position, named for error messages.
type offsetCheck struct {
	name   string
	got    uintptr
	want   uintptr
}

func (c offsetCheck) verify() error {
	if c.got != c.want {
		return fmt.Errorf("%s at offset %d, want %d: %w", c.name, c.got, c.want, staticerr.ErrWireLayoutMismatch)
	}
	return nil
}

// VerifyLayout asserts that every wire struct matches the byte-exact offsets
// and sizes mandated by the legacy C++ ABI. It is the Go
// equivalent of the C++ side's compile-time static_assert battery and the
// standalone `offset_check` helper tool — callers must
// run it once at process startup and treat any error as fatal (exit code 1).
func VerifyLayout() error {
	var req RequestMsg
	var resp ResponseMsg
	var md MarketUpdateNew
	var cd ContractDescription
	var be BookElement
	var hdr MDHeaderPart
	var data MDDataPart

	sizes := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"ContractDescription", unsafe.Sizeof(cd), 96},
		{"RequestMsg", unsafe.Sizeof(req), RequestMsgSize},
		{"ResponseMsg", unsafe.Sizeof(resp), ResponseMsgSize},
		{"BookElement", unsafe.Sizeof(be), 16},
		{"MDHeaderPart", unsafe.Sizeof(hdr), 96},
		{"MDDataPart", unsafe.Sizeof(data), 720},
		{"MarketUpdateNew", unsafe.Sizeof(md), MarketUpdateNewSize},
	}
	for _, s := range sizes {
		if s.got != s.want {
			return fmt.Errorf("sizeof(%s) = %d, want %d: %w", s.name, s.got, s.want, staticerr.ErrWireLayoutMismatch)
		}
	}

	offsets := []offsetCheck{
		{"RequestMsg.RequestType", unsafe.Offsetof(req.RequestType), 96},
		{"RequestMsg.OrdType", unsafe.Offsetof(req.OrdType), 100},
		{"RequestMsg.Duration", unsafe.Offsetof(req.Duration), 104},
		{"RequestMsg.PxType", unsafe.Offsetof(req.PxType), 108},
		{"RequestMsg.PosDirection", unsafe.Offsetof(req.PosDirection), 112},
		{"RequestMsg.OrderID", unsafe.Offsetof(req.OrderID), 116},
		{"RequestMsg.Token", unsafe.Offsetof(req.Token), 120},
		{"RequestMsg.Quantity", unsafe.Offsetof(req.Quantity), 124},
		{"RequestMsg.QuantityFilled", unsafe.Offsetof(req.QuantityFilled), 128},
		{"RequestMsg.DisclosedQnty", unsafe.Offsetof(req.DisclosedQnty), 132},
		{"RequestMsg.Price", unsafe.Offsetof(req.Price), 136},
		{"RequestMsg.TimeStamp", unsafe.Offsetof(req.TimeStamp), 144},
		{"RequestMsg.AccountID", unsafe.Offsetof(req.AccountID), 152},
		{"RequestMsg.TransactionType", unsafe.Offsetof(req.TransactionType), 163},
		{"RequestMsg.ExchangeType", unsafe.Offsetof(req.ExchangeType), 164},
		{"RequestMsg.Product", unsafe.Offsetof(req.Product), 185},
		{"RequestMsg.StrategyID", unsafe.Offsetof(req.StrategyID), 220},

		{"ResponseMsg.ChildResponse", unsafe.Offsetof(resp.ChildResponse), 4},
		{"ResponseMsg.OrderID", unsafe.Offsetof(resp.OrderID), 8},
		{"ResponseMsg.ErrorCode", unsafe.Offsetof(resp.ErrorCode), 12},
		{"ResponseMsg.Quantity", unsafe.Offsetof(resp.Quantity), 16},
		{"ResponseMsg.Price", unsafe.Offsetof(resp.Price), 24},
		{"ResponseMsg.TimeStamp", unsafe.Offsetof(resp.TimeStamp), 32},
		{"ResponseMsg.Side", unsafe.Offsetof(resp.Side), 40},
		{"ResponseMsg.Symbol", unsafe.Offsetof(resp.Symbol), 41},
		{"ResponseMsg.AccountID", unsafe.Offsetof(resp.AccountID), 91},
		{"ResponseMsg.ExchangeOrderId", unsafe.Offsetof(resp.ExchangeOrderId), 104},
		{"ResponseMsg.ExchangeTradeId", unsafe.Offsetof(resp.ExchangeTradeId), 112},
		{"ResponseMsg.OpenClose", unsafe.Offsetof(resp.OpenClose), 133},
		{"ResponseMsg.ExchangeID", unsafe.Offsetof(resp.ExchangeID), 134},
		{"ResponseMsg.Product", unsafe.Offsetof(resp.Product), 135},
		{"ResponseMsg.StrategyID", unsafe.Offsetof(resp.StrategyID), 168},

		{"MDDataPart.BidUpdates", unsafe.Offsetof(data.BidUpdates), 56},
		{"MDDataPart.AskUpdates", unsafe.Offsetof(data.AskUpdates), 376},
		{"MDDataPart.NewQuant", unsafe.Offsetof(data.NewQuant), 696},
		{"MarketUpdateNew.Data", unsafe.Offsetof(md.Data), 96},
	}
	for _, o := range offsets {
		if err := o.verify(); err != nil {
			return err
		}
	}

	return nil
}

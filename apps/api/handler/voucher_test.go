package handler

import (
	"testing"

	"shopvn/apps/api/model"
)

func TestVoucherDiscount(t *testing.T) {
	amount := &model.Voucher{DiscountType: "amount", DiscountValue: 20000}
	if d := voucherDiscount(amount, 250000); d != 20000 {
		t.Errorf("amount discount = %v, want 20000", d)
	}

	percent := &model.Voucher{DiscountType: "percent", DiscountValue: 10}
	if d := voucherDiscount(percent, 250000); d != 25000 {
		t.Errorf("percent discount = %v, want 25000", d)
	}

	// 抵扣不能超过订单金额
	big := &model.Voucher{DiscountType: "amount", DiscountValue: 500000}
	if d := voucherDiscount(big, 100000); d != 100000 {
		t.Errorf("capped discount = %v, want 100000", d)
	}
}

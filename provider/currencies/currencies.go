package currencies

import "github.com/sig-0/fxpoints/storage/types"

// KZT is the quote currency of every listed price
var KZT types.Currency = "KZT"

var (
	USD  types.Currency = "USD"
	EUR  types.Currency = "EUR"
	RUB  types.Currency = "RUB"
	KGS  types.Currency = "KGS"
	CNY  types.Currency = "CNY"
	GBP  types.Currency = "GBP"
	CHF  types.Currency = "CHF"
	UZS  types.Currency = "UZS"
	JPY  types.Currency = "JPY"
	AUD  types.Currency = "AUD"
	TRY  types.Currency = "TRY"
	AED  types.Currency = "AED"
	UAH  types.Currency = "UAH"
	THB  types.Currency = "THB"
	INR  types.Currency = "INR"
	EGP  types.Currency = "EGP"
	CAD  types.Currency = "CAD"
	KPW  types.Currency = "KPW"
	KRW  types.Currency = "KRW"
	MNT  types.Currency = "MNT"
	TMT  types.Currency = "TMT"
	GEL  types.Currency = "GEL"
	GOLD types.Currency = "GOLD"
	AZN  types.Currency = "AZN"
	BHD  types.Currency = "BHD"
	AMD  types.Currency = "AMD"
	BYN  types.Currency = "BYN"
	BRL  types.Currency = "BRL"
	HUF  types.Currency = "HUF"
	HKD  types.Currency = "HKD"
	DKK  types.Currency = "DKK"
	IRR  types.Currency = "IRR"
	KWD  types.Currency = "KWD"
	MYR  types.Currency = "MYR"
	MXN  types.Currency = "MXN"
	MDL  types.Currency = "MDL"
	NOK  types.Currency = "NOK"
	PLN  types.Currency = "PLN"
	SAR  types.Currency = "SAR"
	XDR  types.Currency = "XDR"
	SGD  types.Currency = "SGD"
	TJS  types.Currency = "TJS"
	CZK  types.Currency = "CZK"
	SEK  types.Currency = "SEK"
	ZAR  types.Currency = "ZAR"
	ILS  types.Currency = "ILS"
	QAR  types.Currency = "QAR"
	VND  types.Currency = "VND"
	LKR  types.Currency = "LKR"
	OMR  types.Currency = "OMR"
	PKR  types.Currency = "PKR"
)

// All lists the currencies the listing source quotes, in display order
var All = []types.Currency{
	USD, EUR, RUB, KGS, CNY, GBP, CHF, UZS, JPY, AUD, TRY, AED, UAH, THB, INR, EGP, CAD,
	KPW, KRW, MNT, TMT, GEL, GOLD, AZN, BHD, AMD, BYN, BRL, HUF, HKD, DKK, IRR, KWD,
	MYR, MXN, MDL, NOK, PLN, SAR, XDR, SGD, TJS, CZK, SEK, ZAR, ILS, QAR, VND, LKR, OMR, PKR,
}

// Supported reports if the currency is quoted by the listing source
func Supported(c types.Currency) bool {
	for _, s := range All {
		if s == c {
			return true
		}
	}

	return false
}

package handlers

import "regexp"

// Barcodes are EAN-8 through EAN-14/GTIN digit strings.
var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

func validBarcode(barcode string) bool {
	return barcodePattern.MatchString(barcode)
}

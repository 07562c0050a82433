// internal/discovery/usb/database.go - USB Device Database
package usb

import (
	"github.com/google/gousb"
)

// BrotherVendorID is the USB vendor ID of Brother Industries
const BrotherVendorID gousb.ID = 0x04F9

// DeviceDatabase contains known label printers for identification when a
// device's string descriptors cannot be read
type DeviceDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model    string
	TwoColor bool
}

// NewDeviceDatabase creates and initializes the device database
func NewDeviceDatabase() *DeviceDatabase {
	db := &DeviceDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known devices database
func (db *DeviceDatabase) initializeDatabase() {
	brother := &VendorInfo{
		Name:     "Brother Industries, Ltd",
		products: make(map[gousb.ID]*ProductInfo),
	}

	brother.products[0x2015] = &ProductInfo{Model: "QL-500"}
	brother.products[0x2016] = &ProductInfo{Model: "QL-550"}
	brother.products[0x201B] = &ProductInfo{Model: "QL-650TD"}
	brother.products[0x2020] = &ProductInfo{Model: "QL-1050"}
	brother.products[0x2027] = &ProductInfo{Model: "QL-560"}
	brother.products[0x2028] = &ProductInfo{Model: "QL-570"}
	brother.products[0x2029] = &ProductInfo{Model: "QL-580N"}
	brother.products[0x202A] = &ProductInfo{Model: "QL-1060N"}
	brother.products[0x2042] = &ProductInfo{Model: "QL-700"}
	brother.products[0x2043] = &ProductInfo{Model: "QL-710W"}
	brother.products[0x2044] = &ProductInfo{Model: "QL-720NW"}
	brother.products[0x209B] = &ProductInfo{Model: "QL-800", TwoColor: true}
	brother.products[0x209C] = &ProductInfo{Model: "QL-810W", TwoColor: true}
	brother.products[0x209D] = &ProductInfo{Model: "QL-820NWB", TwoColor: true}
	brother.products[0x20A7] = &ProductInfo{Model: "QL-1100"}
	brother.products[0x20A8] = &ProductInfo{Model: "QL-1110NWB"}

	db.vendors[BrotherVendorID] = brother
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *DeviceDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *DeviceDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo retrieves product information from vendor
func (vi *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return vi.products[productID]
}

// Lookup returns the product entry for a vendor/product pair, or nil
func (db *DeviceDatabase) Lookup(vendorID, productID gousb.ID) *ProductInfo {
	vendor := db.GetVendorInfo(vendorID)
	if vendor == nil {
		return nil
	}
	return vendor.GetProductInfo(productID)
}

// AddProduct adds a new product to an existing vendor
func (db *DeviceDatabase) AddProduct(vendorID, productID gousb.ID, info *ProductInfo) {
	if vendor, exists := db.vendors[vendorID]; exists {
		vendor.products[productID] = info
	}
}

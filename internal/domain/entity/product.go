package entity

// Product representa un producto del catálogo. ID lo asigna el almacén al insertar.
// Price y StockQuantity no negativos se exigen en el esquema (CHECK), no aquí.
type Product struct {
	ID            int64
	Name          string
	Price         float64
	Category      string
	StockQuantity int
}

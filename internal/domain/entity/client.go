package entity

// Client representa un cliente. ID lo asigna el almacén al insertar.
// Type es una etiqueta libre; su valor cero es "".
type Client struct {
	ID    int64
	Name  string
	Email string
	Phone string
	Type  string
}

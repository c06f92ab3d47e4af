package entity

// Invoice representa la cabecera de una factura de un cliente.
// Client es solo navegación en memoria: si ClientID es 0 al guardar, se toma Client.ID.
type Invoice struct {
	ID       int64
	ClientID int64
	Client   *Client
	Lines    []InvoiceLine
}

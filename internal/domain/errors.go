package domain

import "errors"

// Errores de dominio (sin dependencias externas). Se comparan con errors.Is;
// las capas de infraestructura los envuelven junto al error original del driver.
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrConflict      = errors.New("conflicto con una restricción del almacén")
	ErrConfiguration = errors.New("configuración de almacén inválida")
	ErrConnectivity  = errors.New("fallo de comunicación con el almacén")
	ErrDisposed      = errors.New("contexto de persistencia liberado")
	ErrInvalidInput  = errors.New("entrada inválida")
)

// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"backoffice/internal/domain/entity"
)

// DeviceRepository defines the read-only interface over the device registry.
// Device lifecycle (registration, unregistration) is owned by the client apps'
// registration flow and is out of scope for this service.
type DeviceRepository interface {
	// ListActiveDevices retrieves every active registered device. The
	// dispatcher fetches this fresh on each dispatch so it never fans out
	// against a stale snapshot.
	ListActiveDevices(ctx context.Context) ([]*entity.Device, error)
}

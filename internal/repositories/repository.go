package repositories

import "context"

// Repository aggregates all repository interfaces of the chat service
type Repository interface {
	// Chat domain
	Group() GroupRepository
	Message() MessageRepository

	// User domain
	User() UserRepository

	// Profile sync domain
	LeetCode() LeetCodeRepository

	// Supporting domain
	Notification() NotificationRepository
	Audit() AuditRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

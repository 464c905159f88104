// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel with the integer key and creation time
// - identity.go: users, permissions, tracker profiles and preferences
// - tracker.go: grants, topics, tickets and everything attached to a ticket
// - notification.go: watchers and pending notifications
// - payment.go: transactions and clusters
// - task.go: the delayed task queue
package models

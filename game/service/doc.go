// Package service provides the business logic layer between the transports
// and the game engine.
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game
// operations: creating games, joining players, applying actions and reading
// state projections.
//
// Concurrency:
//
// The engine itself is not safe for concurrent use, so the service
// serializes all mutations per game. Each game ID owns a mutex; a mutation
// acquires it, reloads the authoritative record from storage, applies the
// change, and persists the record before releasing the lock. Two requests
// racing on the same game therefore see each other's effects, and exactly
// one of two conflicting actions wins. Reads skip the lock and observe the
// latest persisted record.
//
// Error Handling:
//
// Rule violations (wrong turn, invalid combination, insufficient meld) come
// back as ActionResult with Success=false, or as *engine.GameError where no
// partial result exists. Storage and transport failures are plain errors.
//
// Usage:
//
//	store := storage.NewMemoryStore()
//	gameService := service.NewGameService(store, logger)
//
//	info, err := gameService.CreateGame(ctx, 4)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	join, err := gameService.JoinGame(ctx, info.GameID, "alice")
package service

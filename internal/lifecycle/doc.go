// Package lifecycle управляет ресурсами сервиса: engines и базой данных.
//
// Все операции идемпотентны:
//   - EngineManager.EnsureCreated не трогает существующий engine, 409 считается успехом
//   - EngineManager.EnsureDeleted ничего не делает для отсутствующего или удалённого engine
//   - DatabaseManager.EnsureConnected создаёт базу с overwrite только если её нет
//
// Ожидание provisioning — фиксированный polling без backoff:
// не больше PollAttempts проверок с паузой PollInterval между ними.
package lifecycle

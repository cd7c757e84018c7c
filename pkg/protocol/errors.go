package protocol

import "errors"

var (
	// ErrIO короткое или нулевое чтение/запись.
	ErrIO = errors.New("i/o failure")

	// ErrNoLoginReceived клиент не прислал login.
	ErrNoLoginReceived = errors.New("no login received")

	// ErrUnknownLogin login отсутствует в базе пользователей.
	ErrUnknownLogin = errors.New("unknown login")

	// ErrSaltSendFailed соль не удалось отправить целиком.
	ErrSaltSendFailed = errors.New("salt send failed")

	// ErrNoResponseReceived клиент не прислал hash.
	ErrNoResponseReceived = errors.New("no response received")

	// ErrHashMismatch hash клиента не совпал с ожидаемым.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrFraming некорректный или оборванный кадр векторов.
	ErrFraming = errors.New("framing error")

	// ErrConfig не удалось прочитать базу пользователей. Не фатальна.
	ErrConfig = errors.New("config failure")

	// ErrBind не удалось создать listener. Фатальна при старте.
	ErrBind = errors.New("bind failure")

	// ErrAuthFailed сервер ответил ERR (сторона клиента).
	ErrAuthFailed = errors.New("authentication failed")
)

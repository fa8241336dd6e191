package handler

import (
	"dmchat/internal/app/chat"
	"dmchat/internal/app/message"
	"dmchat/internal/app/storage"
	"dmchat/internal/app/user"
	"dmchat/internal/configs"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/pow"
)

// AppDeps carries everything the handlers need.
type AppDeps struct {
	Config   *configs.AppConfig
	Tokens   *jwt.TokenService
	Users    *user.Service
	Messages *message.Service
	Files    *storage.Service
	Gateway  *chat.Gateway
	Pow      *pow.Manager
}

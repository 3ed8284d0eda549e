package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken, PermanentToken, OAuthConnection from user.go
// - Subscription, CreditEntry from billing.go
// - Agent, Conversation, ChatMessage from chat.go
// - MailAccount from mail.go
// - NewsSource, NewsItem from news.go
// - UserSettings, Widget from settings.go

// Database schema overview:
// 1. users - Managed by cookie-based authentication
// 2. oauth_connections - Linked external identities with encrypted tokens
// 3. subscriptions - One row per user, mirrors Stripe state
// 4. credit_entries - Append-only ledger of AI usage credits
// 5. agents - Both public personas (user_id is NULL) and private user-created ones
// 6. conversations / chat_messages - Ordered AI chat threads
// 7. mail_accounts - Connected mailboxes (gmail/outlook/imap)
// 8. news_sources / news_items - Polled feeds and their normalized entries
// 9. user_settings / widgets - Theming and dashboard layout

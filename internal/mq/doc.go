// Package mq публикует события жизненного цикла аккаунтов в RabbitMQ.
//
// События (карантин, регистрация) — необязательная интеграция:
// без RABBITMQ_URL ферма работает как прежде, publisher остаётся nil.
package mq

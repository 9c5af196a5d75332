/*
Package chat resolves farmer chat messages into replies.

# Overview

A Resolver sends the user's message, unchanged, to a Generator (a hosted
generative model). When the generator answers with non-empty text the reply is
returned as a live response. Any failure, whether a transport error, timeout,
quota or permission problem, or a malformed or empty reply, is absorbed and
answered from a canned Table instead. Resolve never returns an error.

# Fallback selection

The message is filed under a Topic by a keyword Classifier (first matching
keyword set wins, TopicGeneral otherwise). The canned reply is looked up for
(topic, language), then (topic, "en"), then (general, "en").

# Failure reasons

Generators tag failures with a ProviderError carrying a Reason. The reason
is logged and counted but never changes the shape of the Response.

	resolver := chat.NewResolver(gen, table,
		chat.WithTimeout(20*time.Second),
		chat.WithLogger(logger.Logger),
	)
	resp := resolver.Resolve(ctx, chat.Request{Message: "When should I sow wheat?", Language: "hi"})
*/
package chat

package maven

// wellKnownVersions is a bounded, hand-curated table of default versions for
// common libraries. It is the last resort of the resolution chain: a
// pragmatic approximation used only when a POM gives no other signal (e.g. a
// BOM-managed Spring build scanned without its full parent chain). It is
// static data, not inferred, and is not a source of truth.
var wellKnownVersions = map[string]string{
	"org.springframework:spring-core":                                  "5.3.9",
	"org.springframework:spring-context-support":                      "5.3.9",
	"org.springframework:spring-webmvc":                               "5.3.9",
	"org.springframework:spring-aspects":                              "5.3.9",
	"org.springframework.security:spring-security-core":               "5.4.9",
	"org.springframework.security:spring-security-config":             "5.4.9",
	"org.springframework.security:spring-security-oauth2-resource-server": "5.4.9",
	"org.springframework.security:spring-security-oauth2-jose":        "5.4.9",
	"org.springframework.boot:spring-boot-starter-data-redis":         "2.4.3",
	"org.springframework.boot:spring-boot-starter-validation":         "2.4.3",
	"org.springframework.boot:spring-boot-starter-test":               "2.4.3",
	"org.springframework.vault:spring-vault-core":                     "2.2.3.RELEASE",
	"org.springframework.retry:spring-retry":                          "1.3.4",
	"com.fasterxml.jackson.core:jackson-databind":                     "2.12.1",
	"com.fasterxml.jackson.dataformat:jackson-dataformat-xml":         "2.12.1",
	"com.fasterxml.jackson.datatype:jackson-datatype-jsr310":          "2.12.1",
	"org.apache.commons:commons-lang3":                                "3.12.0",
	"org.apache.commons:commons-collections4":                         "4.4",
	"org.apache.httpcomponents:httpclient":                            "4.5.13",
	"org.apache.tomcat.embed:tomcat-embed-core":                       "9.0.43",
	"com.squareup.okhttp3:okhttp":                                     "4.9.1",
	"com.github.ben-manes.caffeine:caffeine":                          "2.8.8",
	"org.projectlombok:lombok":                                        "1.18.20",
	"org.slf4j:slf4j-api":                                             "1.7.30",
	"javax.validation:validation-api":                                 "2.0.1.Final",
	"commons-io:commons-io":                                           "2.11.0",
	"org.bouncycastle:bcpkix-jdk15on":                                 "1.70",
	"org.apache.tika:tika-core":                                       "2.9.1",
	"com.google.zxing:core":                                           "3.4.1",
	"com.google.zxing:javase":                                         "3.4.1",
	"com.openhtmltopdf:openhtmltopdf-core":                            "1.0.8",
	"com.openhtmltopdf:openhtmltopdf-pdfbox":                          "1.0.8",
	"com.networknt:json-schema-validator":                             "1.0.57",
	"io.github.resilience4j:resilience4j-all":                         "1.7.0",
	"io.github.resilience4j:resilience4j-micrometer":                  "1.7.0",
	"org.jsoup:jsoup":                                                 "1.14.2",
}
